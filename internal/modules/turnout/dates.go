package turnout

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/civicgrid/victory/internal/clients/voterdata"
	"github.com/civicgrid/victory/internal/domain"
)

const (
	// LookbackCycles is the number of prior election cycles sampled.
	LookbackCycles = 3
	// probesPerCycle bounds the candidate dates tried per cycle for non-partisan races.
	probesPerCycle = 3
	// maxProbeDistance is how far a vote-history date may sit from the expected date.
	maxProbeDistance = 183 * 24 * time.Hour
)

// historyTypes are the vote-history election types considered, in preference order.
var historyTypes = []string{"General", "Consolidated_General", "Local", "Primary"}

// partisanColumns are district columns whose races follow the November general cycle.
var partisanColumns = map[string]bool{
	"State_Senate_District":    true,
	"State_House_District":     true,
	"US_Congressional_District": true,
	"US_Senate":                true,
}

// historyColumn is a parsed vote-history column such as General_2022_11_08.
type historyColumn struct {
	ID       string
	Type     string
	Date     time.Time
	Indexed  bool
	typeRank int
}

// parseHistoryColumn splits "<Type>_<YYYY>_<MM>_<DD>". Only the allowed types parse.
func parseHistoryColumn(c voterdata.Column) (historyColumn, bool) {
	parts := strings.Split(c.ID, "_")
	if len(parts) < 4 {
		return historyColumn{}, false
	}
	typ := strings.Join(parts[:len(parts)-3], "_")
	date, err := time.Parse("2006_01_02", strings.Join(parts[len(parts)-3:], "_"))
	if err != nil {
		return historyColumn{}, false
	}
	for i, t := range historyTypes {
		if strings.EqualFold(t, typ) {
			return historyColumn{ID: c.ID, Type: t, Date: date, Indexed: c.Indexed, typeRank: i}, true
		}
	}
	return historyColumn{}, false
}

// HistoryColumnName formats a vote-history column name.
func HistoryColumnName(electionType string, date time.Time) string {
	return electionType + "_" + date.Format("2006_01_02")
}

// GeneralElectionDay returns the Tuesday after the first Monday of November.
func GeneralElectionDay(year int) time.Time {
	d := time.Date(year, time.November, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 1)
}

// isPartisanRace reports whether the race follows the November general cycle.
func isPartisanRace(q domain.RaceQuery, match domain.DistrictMatch) bool {
	return q.IsPartisan() || partisanColumns[match.ElectionType]
}

// cyclePlan is the ordered list of columns to probe for one prior cycle.
// The first column with a positive estimate wins.
type cyclePlan struct {
	Year    int
	Columns []string
}

// planHistory lists, most recent cycle first, the vote-history columns to
// probe for each of the prior cycles.
func planHistory(q domain.RaceQuery, match domain.DistrictMatch, target time.Time, columns []voterdata.Column) []cyclePlan {
	var parsed []historyColumn
	for _, c := range columns {
		if c.Category != "" && c.Category != voterdata.CategoryVoteHistory {
			continue
		}
		if hc, ok := parseHistoryColumn(c); ok {
			parsed = append(parsed, hc)
		}
	}

	term := q.Term()

	if isPartisanRace(q, match) {
		available := make(map[string]bool, len(parsed))
		for _, hc := range parsed {
			available[hc.ID] = true
		}
		plans := make([]cyclePlan, 0, LookbackCycles)
		for k := 1; k <= LookbackCycles; k++ {
			year := target.Year() - k*term
			col := HistoryColumnName("General", GeneralElectionDay(year))
			plan := cyclePlan{Year: year}
			if available[col] {
				plan.Columns = []string{col}
			}
			plans = append(plans, plan)
		}
		return plans
	}

	if len(q.PriorElectionDates) > 0 {
		return planKnownDates(q.PriorElectionDates, parsed)
	}

	plans := make([]cyclePlan, 0, LookbackCycles)
	for k := 1; k <= LookbackCycles; k++ {
		expected := target.AddDate(-k*term, 0, 0)
		plans = append(plans, cyclePlan{
			Year:    expected.Year(),
			Columns: closestColumns(parsed, expected, probesPerCycle),
		})
	}
	return plans
}

// planKnownDates maps each supplied prior date to its best-typed column.
func planKnownDates(dates []string, parsed []historyColumn) []cyclePlan {
	var known []time.Time
	for _, s := range dates {
		if d, err := domain.ParseElectionDate(s); err == nil {
			known = append(known, d)
		}
	}
	sort.Slice(known, func(i, j int) bool { return known[i].After(known[j]) })
	if len(known) > LookbackCycles {
		known = known[:LookbackCycles]
	}

	plans := make([]cyclePlan, 0, len(known))
	for _, d := range known {
		var matches []historyColumn
		for _, hc := range parsed {
			if sameDay(hc.Date, d) {
				matches = append(matches, hc)
			}
		}
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].typeRank < matches[j].typeRank })

		plan := cyclePlan{Year: d.Year()}
		for _, m := range matches {
			plan.Columns = append(plan.Columns, m.ID)
		}
		plans = append(plans, plan)
	}
	return plans
}

// closestColumns returns up to n indexed columns nearest to expected.
// Ties prefer the more general election type.
func closestColumns(parsed []historyColumn, expected time.Time, n int) []string {
	var pool []historyColumn
	for _, hc := range parsed {
		if hc.Indexed && distance(hc.Date, expected) <= maxProbeDistance {
			pool = append(pool, hc)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		di, dj := distance(pool[i].Date, expected), distance(pool[j].Date, expected)
		if di != dj {
			return di < dj
		}
		return pool[i].typeRank < pool[j].typeRank
	})

	out := make([]string, 0, n)
	seenDates := map[string]bool{}
	for _, hc := range pool {
		day := hc.Date.Format(domain.DateLayout)
		if seenDates[day] {
			continue
		}
		seenDates[day] = true
		out = append(out, hc.ID)
		if len(out) == n {
			break
		}
	}
	return out
}

func distance(a, b time.Time) time.Duration {
	return time.Duration(math.Abs(float64(a.Sub(b))))
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
