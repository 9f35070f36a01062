package pathtovictory

import (
	"time"

	"github.com/civicgrid/victory/internal/domain"
)

// MergeResult is the outcome of merging a pass into a baseline record.
type MergeResult struct {
	Record         Record
	PreviousStatus domain.P2VStatus
	StatusChanged  bool
	FirstComplete  bool
}

// Merge folds an outcome into the baseline. Status moves to the maximum of
// the two under the status order. Empty or zero incoming fields keep the
// baseline value. A nil baseline starts a fresh Waiting record.
func Merge(baseline *Record, campaignID string, in Outcome, now time.Time) MergeResult {
	var rec Record
	if baseline != nil {
		rec = *baseline
	} else {
		rec = Record{
			CampaignID: campaignID,
			Status:     domain.StatusWaiting,
			CreatedAt:  now.Unix(),
		}
	}
	prev := rec.Status
	if prev == "" {
		prev = domain.StatusWaiting
	}

	rec.ElectionType = keepString(rec.ElectionType, in.Match.ElectionType)
	rec.ElectionLocation = keepString(rec.ElectionLocation, in.Match.ElectionLocation)
	rec.Counts = mergeCounts(rec.Counts, in.Counts)
	rec.Source = keepString(rec.Source, in.Source)

	switch {
	case baseline == nil, baseline.OfficeFingerprint != in.Fingerprint:
		rec.Attempts = 0
	case !in.Manual:
		rec.Attempts++
	}
	if in.Fingerprint != "" {
		rec.OfficeFingerprint = in.Fingerprint
	}

	rec.Status = prev.Max(in.Status)

	res := MergeResult{PreviousStatus: prev, StatusChanged: rec.Status != prev}
	if rec.Status == domain.StatusComplete && rec.CompletedAt == nil {
		ts := now.Unix()
		rec.CompletedAt = &ts
		res.FirstComplete = true
	}

	rec.UpdatedAt = now.Unix()
	res.Record = rec
	return res
}

func keepString(base, incoming string) string {
	if incoming != "" {
		return incoming
	}
	return base
}

func keepInt(base, incoming int) int {
	if incoming != 0 {
		return incoming
	}
	return base
}

func keepFloat(base, incoming float64) float64 {
	if incoming != 0 {
		return incoming
	}
	return base
}

func keepIntPtr(base, incoming *int) *int {
	if incoming != nil {
		return incoming
	}
	return base
}

func mergeCounts(base, in domain.VoterCounts) domain.VoterCounts {
	return domain.VoterCounts{
		Total:                   keepInt(base.Total, in.Total),
		Democrat:                keepInt(base.Democrat, in.Democrat),
		Republican:              keepInt(base.Republican, in.Republican),
		Independent:             keepInt(base.Independent, in.Independent),
		Men:                     keepInt(base.Men, in.Men),
		Women:                   keepInt(base.Women, in.Women),
		White:                   keepInt(base.White, in.White),
		Asian:                   keepInt(base.Asian, in.Asian),
		Hispanic:                keepInt(base.Hispanic, in.Hispanic),
		AfricanAmerican:         keepInt(base.AfricanAmerican, in.AfricanAmerican),
		AverageTurnout:          keepInt(base.AverageTurnout, in.AverageTurnout),
		AverageTurnoutPercent:   keepFloat(base.AverageTurnoutPercent, in.AverageTurnoutPercent),
		ProjectedTurnout:        keepInt(base.ProjectedTurnout, in.ProjectedTurnout),
		ProjectedTurnoutPercent: keepFloat(base.ProjectedTurnoutPercent, in.ProjectedTurnoutPercent),
		WinNumber:               keepIntPtr(base.WinNumber, in.WinNumber),
		VoterContactGoal:        keepIntPtr(base.VoterContactGoal, in.VoterContactGoal),
	}
}
