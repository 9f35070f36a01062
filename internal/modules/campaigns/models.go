// Package campaigns is the local read model of the external campaign store:
// office context, race linkage and candidate identity per campaign.
package campaigns

import (
	"strings"

	"github.com/civicgrid/victory/internal/domain"
)

// Campaign holds the fields path-to-victory and viability scoring read.
type Campaign struct {
	ID                   string   `json:"id"`
	CandidateFirstName   string   `json:"candidateFirstName"`
	CandidateLastName    string   `json:"candidateLastName"`
	OfficeName           string   `json:"officeName"`
	ElectionLevel        string   `json:"electionLevel"`
	ElectionState        string   `json:"electionState"`
	ElectionCounty       string   `json:"electionCounty,omitempty"`
	ElectionMunicipality string   `json:"electionMunicipality,omitempty"`
	SubAreaName          string   `json:"subAreaName,omitempty"`
	SubAreaValue         string   `json:"subAreaValue,omitempty"`
	ElectionDate         string   `json:"electionDate"`
	ElectionTerm         int      `json:"electionTerm"`
	PartisanType         string   `json:"partisanType"`
	PriorElectionDates   []string `json:"priorElectionDates,omitempty"`
	RaceID               string   `json:"raceId,omitempty"`
	PositionID           string   `json:"positionId,omitempty"`
	IsAdminCreated       bool     `json:"isAdminCreated"`
	CreatedAt            int64    `json:"createdAt"`
	UpdatedAt            int64    `json:"updatedAt"`
}

// CandidateName returns "First Last".
func (c Campaign) CandidateName() string {
	return strings.TrimSpace(strings.TrimSpace(c.CandidateFirstName) + " " + strings.TrimSpace(c.CandidateLastName))
}

// RaceQuery builds the orchestration input for this campaign.
func (c Campaign) RaceQuery() domain.RaceQuery {
	return domain.RaceQuery{
		CampaignID:           c.ID,
		OfficeName:           c.OfficeName,
		ElectionLevel:        domain.ParseElectionLevel(c.ElectionLevel),
		ElectionState:        c.ElectionState,
		ElectionCounty:       c.ElectionCounty,
		ElectionMunicipality: c.ElectionMunicipality,
		ElectionDate:         c.ElectionDate,
		ElectionTerm:         c.ElectionTerm,
		PartisanType:         c.PartisanType,
		SubAreaName:          c.SubAreaName,
		SubAreaValue:         c.SubAreaValue,
		PriorElectionDates:   c.PriorElectionDates,
	}
}
