package pathtovictory

import (
	"testing"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mergeNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestMerge_NilBaselineStartsFresh(t *testing.T) {
	res := Merge(nil, "camp-1", Outcome{
		Match:       domain.DistrictMatch{ElectionType: "City_Council", ElectionLocation: "GA##1"},
		Counts:      domain.VoterCounts{Total: 100},
		Status:      domain.StatusDistrictMatched,
		Fingerprint: "fp",
		Source:      SourceSilver,
	}, mergeNow)

	rec := res.Record
	assert.Equal(t, "camp-1", rec.CampaignID)
	assert.Equal(t, domain.StatusDistrictMatched, rec.Status)
	assert.Equal(t, domain.StatusWaiting, res.PreviousStatus)
	assert.True(t, res.StatusChanged)
	assert.False(t, res.FirstComplete)
	assert.Equal(t, 0, rec.Attempts)
	assert.Equal(t, "fp", rec.OfficeFingerprint)
	assert.Equal(t, mergeNow.Unix(), rec.CreatedAt)
	assert.Nil(t, rec.CompletedAt)
}

func TestMerge_StatusNeverRegresses(t *testing.T) {
	tests := []struct {
		name     string
		baseline domain.P2VStatus
		incoming domain.P2VStatus
		want     domain.P2VStatus
	}{
		{"matched ignores failed", domain.StatusDistrictMatched, domain.StatusFailed, domain.StatusDistrictMatched},
		{"matched ignores waiting", domain.StatusDistrictMatched, domain.StatusWaiting, domain.StatusDistrictMatched},
		{"complete ignores failed", domain.StatusComplete, domain.StatusFailed, domain.StatusComplete},
		{"complete ignores matched", domain.StatusComplete, domain.StatusDistrictMatched, domain.StatusComplete},
		{"waiting upgrades to complete", domain.StatusWaiting, domain.StatusComplete, domain.StatusComplete},
		{"waiting becomes failed", domain.StatusWaiting, domain.StatusFailed, domain.StatusFailed},
		{"failed upgrades to matched", domain.StatusFailed, domain.StatusDistrictMatched, domain.StatusDistrictMatched},
		{"failed stays above waiting", domain.StatusFailed, domain.StatusWaiting, domain.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &Record{CampaignID: "c", Status: tt.baseline, OfficeFingerprint: "fp"}
			res := Merge(base, "c", Outcome{Status: tt.incoming, Fingerprint: "fp"}, mergeNow)
			assert.Equal(t, tt.want, res.Record.Status)
			assert.Equal(t, tt.want != tt.baseline, res.StatusChanged)
		})
	}
}

func TestMerge_EmptyIncomingKeepsBaseline(t *testing.T) {
	base := &Record{
		CampaignID:        "c",
		ElectionType:      "State_House",
		ElectionLocation:  "GA##HOUSE 12",
		Status:            domain.StatusComplete,
		OfficeFingerprint: "fp",
		Counts: domain.VoterCounts{
			Total:            5000,
			Democrat:         2000,
			ProjectedTurnout: 500,
			WinNumber:        domain.IntPtr(255),
			VoterContactGoal: domain.IntPtr(1275),
		},
	}

	res := Merge(base, "c", Outcome{Status: domain.StatusFailed, Fingerprint: "fp"}, mergeNow)

	rec := res.Record
	assert.Equal(t, "State_House", rec.ElectionType)
	assert.Equal(t, "GA##HOUSE 12", rec.ElectionLocation)
	assert.Equal(t, 5000, rec.Counts.Total)
	assert.Equal(t, 2000, rec.Counts.Democrat)
	assert.Equal(t, 500, rec.Counts.ProjectedTurnout)
	require.NotNil(t, rec.Counts.WinNumber)
	assert.Equal(t, 255, *rec.Counts.WinNumber)
	require.NotNil(t, rec.Counts.VoterContactGoal)
	assert.Equal(t, 1275, *rec.Counts.VoterContactGoal)
}

func TestMerge_NonEmptyIncomingOverwrites(t *testing.T) {
	base := &Record{CampaignID: "c", ElectionType: "City_Ward", ElectionLocation: "W1", Counts: domain.VoterCounts{Total: 10, Men: 4}}
	res := Merge(base, "c", Outcome{
		Match:  domain.DistrictMatch{ElectionType: "City_Council", ElectionLocation: "C1"},
		Counts: domain.VoterCounts{Total: 20},
	}, mergeNow)

	assert.Equal(t, "City_Council", res.Record.ElectionType)
	assert.Equal(t, "C1", res.Record.ElectionLocation)
	assert.Equal(t, 20, res.Record.Counts.Total)
	assert.Equal(t, 4, res.Record.Counts.Men)
}

func TestMerge_Attempts(t *testing.T) {
	t.Run("same fingerprint increments", func(t *testing.T) {
		base := &Record{Attempts: 2, OfficeFingerprint: "fp"}
		res := Merge(base, "c", Outcome{Fingerprint: "fp"}, mergeNow)
		assert.Equal(t, 3, res.Record.Attempts)
	})

	t.Run("fingerprint change resets and keeps district", func(t *testing.T) {
		base := &Record{
			Attempts:          5,
			OfficeFingerprint: "old",
			ElectionType:      "State_House",
			ElectionLocation:  "GA##HOUSE 12",
			Status:            domain.StatusDistrictMatched,
		}
		res := Merge(base, "c", Outcome{Fingerprint: "new", Status: domain.StatusFailed}, mergeNow)
		assert.Equal(t, 0, res.Record.Attempts)
		assert.Equal(t, "new", res.Record.OfficeFingerprint)
		assert.Equal(t, "State_House", res.Record.ElectionType)
		assert.Equal(t, domain.StatusDistrictMatched, res.Record.Status)
	})

	t.Run("manual outcome does not count", func(t *testing.T) {
		base := &Record{Attempts: 1, OfficeFingerprint: "fp"}
		res := Merge(base, "c", Outcome{Fingerprint: "fp", Manual: true}, mergeNow)
		assert.Equal(t, 1, res.Record.Attempts)
	})
}

func TestMerge_CompletedAtSetOnce(t *testing.T) {
	first := Merge(&Record{OfficeFingerprint: "fp"}, "c", Outcome{Status: domain.StatusComplete, Fingerprint: "fp"}, mergeNow)
	require.True(t, first.FirstComplete)
	require.NotNil(t, first.Record.CompletedAt)
	assert.Equal(t, mergeNow.Unix(), *first.Record.CompletedAt)

	later := mergeNow.Add(48 * time.Hour)
	second := Merge(&first.Record, "c", Outcome{Status: domain.StatusComplete, Fingerprint: "fp"}, later)
	assert.False(t, second.FirstComplete)
	assert.Equal(t, mergeNow.Unix(), *second.Record.CompletedAt)
	assert.Equal(t, later.Unix(), second.Record.UpdatedAt)
}
