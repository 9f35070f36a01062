// Package pathtovictory orchestrates district resolution, voter counting and
// turnout projection for a campaign and persists the merged result.
package pathtovictory

import (
	"time"

	"github.com/civicgrid/victory/internal/domain"
)

// Record sources.
const (
	SourceSilver = "silver" // heuristic and AI-assisted matching
	SourceAdmin  = "admin"  // district set by an operator
)

// Record is the persisted path-to-victory state of one campaign.
type Record struct {
	CampaignID        string             `json:"campaignId"`
	ElectionType      string             `json:"electionType"`
	ElectionLocation  string             `json:"electionLocation"`
	Counts            domain.VoterCounts `json:"counts"`
	Status            domain.P2VStatus   `json:"status"`
	Attempts          int                `json:"attempts"`
	OfficeFingerprint string             `json:"officeFingerprint"`
	Source            string             `json:"source"`
	CompletedAt       *int64             `json:"completedAt,omitempty"`
	Version           int                `json:"version"`
	CreatedAt         int64              `json:"createdAt"`
	UpdatedAt         int64              `json:"updatedAt"`
}

// District returns the record's district as a DistrictMatch.
func (r Record) District() domain.DistrictMatch {
	return domain.DistrictMatch{ElectionType: r.ElectionType, ElectionLocation: r.ElectionLocation}
}

// CompletedTime returns the completion time, or the zero time.
func (r Record) CompletedTime() time.Time {
	if r.CompletedAt == nil {
		return time.Time{}
	}
	return time.Unix(*r.CompletedAt, 0)
}

// Outcome is what one pass contributes to the persisted record.
type Outcome struct {
	Match       domain.DistrictMatch
	Counts      domain.VoterCounts
	Status      domain.P2VStatus
	Fingerprint string
	Source      string
	// Manual outcomes do not count as an orchestration attempt.
	Manual bool
}

// PassResult summarizes one orchestration pass for callers.
type PassResult struct {
	Record         Record               `json:"record"`
	PassStatus     domain.P2VStatus     `json:"passStatus"`
	PreviousStatus domain.P2VStatus     `json:"previousStatus"`
	Match          domain.DistrictMatch `json:"match"`
	History        []int                `json:"history,omitempty"`
	Err            error                `json:"-"`
}
