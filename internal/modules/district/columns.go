package district

import (
	"strings"

	"github.com/civicgrid/victory/internal/domain"
)

// UsesNoDistrict reports whether the race is decided statewide or nationwide.
// "Senate" here means the U.S. Senate; state senate seats are districted.
func UsesNoDistrict(q domain.RaceQuery) bool {
	if !q.ElectionLevel.IsFederalOrState() {
		return false
	}
	office := strings.ToLower(q.OfficeName)
	switch {
	case strings.Contains(office, "at large"), strings.Contains(office, "at-large"):
		return true
	case strings.Contains(office, "president"):
		return true
	case strings.Contains(office, "governor"):
		return true
	case strings.Contains(office, "mayor"):
		return true
	case strings.Contains(office, "senate") && !strings.Contains(office, "state senate"):
		return q.ElectionLevel == domain.LevelFederal
	}
	return false
}

// jurisdictionColumns returns the level-based candidate columns.
func jurisdictionColumns(q domain.RaceQuery) []string {
	office := strings.ToLower(q.OfficeName)

	switch q.ElectionLevel {
	case domain.LevelFederal:
		return []string{"US_Congressional_District"}
	case domain.LevelState:
		switch {
		case strings.Contains(office, "senate"):
			return []string{"State_Senate_District"}
		case containsAny(office, "house", "assembly", "representative", "delegate"):
			return []string{"State_House_District"}
		default:
			return []string{"State_Senate_District", "State_House_District"}
		}
	case domain.LevelCounty:
		cols := []string{}
		if containsAny(office, "supervisor") {
			cols = append(cols, "County_Supervisorial_District")
		}
		if containsAny(office, "commission") {
			cols = append(cols, "County_Commissioner_District")
		}
		if containsAny(office, "legislat") {
			cols = append(cols, "County_Legislative_District")
		}
		return append(cols, "County")
	default:
		cols := []string{}
		if containsAny(office, "ward") {
			cols = append(cols, "City_Ward")
		}
		if containsAny(office, "council", "alder", "commission") {
			cols = append(cols, "City_Council", "City_Ward")
		}
		if containsAny(office, "town") {
			cols = append(cols, "Town_Council", "Town_District")
		}
		if containsAny(office, "village") {
			cols = append(cols, "Village")
		}
		if containsAny(office, "borough") {
			cols = append(cols, "Borough")
		}
		if containsAny(office, "township") {
			cols = append(cols, "Township")
		}
		return append(cols, "City")
	}
}

// subAreaColumns returns columns that carry sub-jurisdiction splits for the
// level. They go to the front when the query names a sub-area.
func subAreaColumns(q domain.RaceQuery) []string {
	if strings.TrimSpace(q.SubAreaName) == "" && strings.TrimSpace(q.SubAreaValue) == "" {
		return nil
	}
	sub := strings.ToLower(q.SubAreaName)

	switch q.ElectionLevel {
	case domain.LevelCounty:
		if strings.Contains(sub, "commission") {
			return []string{"County_Commissioner_District", "County_Supervisorial_District"}
		}
		return []string{"County_Supervisorial_District", "County_Commissioner_District"}
	case domain.LevelCity, domain.LevelLocal:
		if strings.Contains(sub, "ward") {
			return []string{"City_Ward", "City_Council"}
		}
		return []string{"City_Council", "City_Ward"}
	default:
		return nil
	}
}

// searchString composes the text the value matcher sees.
func searchString(q domain.RaceQuery) string {
	parts := []string{q.OfficeName}
	for _, s := range []string{
		strings.TrimSpace(q.SubAreaName + " " + q.SubAreaValue),
		q.ElectionCounty,
		q.ElectionMunicipality,
		q.State(),
	} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// dedupe keeps the first occurrence of each entry.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
