// Package domain provides the core types shared by the path-to-victory and
// viability components.
package domain

import (
	"strings"
	"time"
)

// ElectionLevel is the jurisdiction level of an office.
type ElectionLevel string

const (
	LevelFederal ElectionLevel = "federal"
	LevelState   ElectionLevel = "state"
	LevelCounty  ElectionLevel = "county"
	LevelCity    ElectionLevel = "city"
	LevelLocal   ElectionLevel = "local"
)

// ParseElectionLevel normalizes a free-form level string.
// Unknown values map to LevelLocal.
func ParseElectionLevel(s string) ElectionLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "federal":
		return LevelFederal
	case "state":
		return LevelState
	case "county":
		return LevelCounty
	case "city":
		return LevelCity
	default:
		return LevelLocal
	}
}

// IsFederalOrState reports whether the level is federal or state.
func (l ElectionLevel) IsFederalOrState() bool {
	return l == LevelFederal || l == LevelState
}

// DateLayout is the calendar date format used for election dates.
const DateLayout = "2006-01-02"

// DefaultElectionTerm is used when a race carries no term length.
const DefaultElectionTerm = 4

// RaceQuery describes a candidacy for one orchestration pass.
type RaceQuery struct {
	CampaignID           string        `json:"campaignId"`
	OfficeName           string        `json:"officeName"`
	ElectionLevel        ElectionLevel `json:"electionLevel"`
	ElectionState        string        `json:"electionState"`
	ElectionCounty       string        `json:"electionCounty,omitempty"`
	ElectionMunicipality string        `json:"electionMunicipality,omitempty"`
	ElectionDate         string        `json:"electionDate"`
	ElectionTerm         int           `json:"electionTerm"`
	PartisanType         string        `json:"partisanType"`
	SubAreaName          string        `json:"subAreaName,omitempty"`
	SubAreaValue         string        `json:"subAreaValue,omitempty"`
	PriorElectionDates   []string      `json:"priorElectionDates,omitempty"`
}

// Term returns the election term in years, falling back to DefaultElectionTerm.
func (q RaceQuery) Term() int {
	if q.ElectionTerm < 1 {
		return DefaultElectionTerm
	}
	return q.ElectionTerm
}

// Date parses ElectionDate. Accepts plain dates and RFC3339 timestamps.
func (q RaceQuery) Date() (time.Time, error) {
	return ParseElectionDate(q.ElectionDate)
}

// IsPartisan reports whether the race is flagged partisan.
func (q RaceQuery) IsPartisan() bool {
	return strings.EqualFold(strings.TrimSpace(q.PartisanType), "partisan")
}

// State returns the upper-cased two-letter state code.
func (q RaceQuery) State() string {
	return strings.ToUpper(strings.TrimSpace(q.ElectionState))
}

// Fingerprint identifies the office context of the query. A change in any of
// these fields invalidates the attempt counter of a persisted record.
func (q RaceQuery) Fingerprint() string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(q.OfficeName)),
		string(q.ElectionLevel),
		q.State(),
		strings.ToLower(strings.TrimSpace(q.ElectionCounty)),
		strings.ToLower(strings.TrimSpace(q.ElectionMunicipality)),
		strings.ToLower(strings.TrimSpace(q.SubAreaName)),
		strings.ToLower(strings.TrimSpace(q.SubAreaValue)),
		q.ElectionDate,
	}
	return strings.Join(parts, "|")
}

// ParseElectionDate parses a date in DateLayout or RFC3339 form.
func ParseElectionDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// DistrictMatch is the resolved voter-file district. Empty fields mean no
// district was found.
type DistrictMatch struct {
	ElectionType     string `json:"electionType"`
	ElectionLocation string `json:"electionLocation"`
}

// IsEmpty reports whether no district was resolved.
func (m DistrictMatch) IsEmpty() bool {
	return m.ElectionType == "" || m.ElectionLocation == ""
}
