package turnout

import (
	"math"

	"github.com/civicgrid/victory/internal/domain"
	"gonum.org/v1/gonum/stat"
)

const (
	// winShareNumerator / 100 is the share of projected turnout needed to win.
	winShareNumerator = 51
	// ContactsPerVote is the voter contacts planned per needed vote.
	ContactsPerVote = 5

	ceilTolerance = 1e-9
)

// Project derives turnout targets from counts and a most-recent-first
// turnout history. It is pure: the input counts are not modified.
func Project(counts domain.VoterCounts, history []int) domain.VoterCounts {
	out := counts
	out.AverageTurnout = 0
	out.AverageTurnoutPercent = 0
	out.ProjectedTurnout = 0
	out.ProjectedTurnoutPercent = 0
	out.WinNumber = nil
	out.VoterContactGoal = nil

	if len(history) == 0 {
		return out
	}

	avg := ceil(mean(history))
	trajectory := 0
	if len(history) >= 2 {
		trajectory = history[0] - history[1]
	}

	out.AverageTurnout = avg
	if counts.Total > 0 {
		out.AverageTurnoutPercent = float64(avg) / float64(counts.Total)
	}

	if trajectory > 0 {
		extended := append(append([]int{}, history...), avg+trajectory)
		out.ProjectedTurnout = ceil(mean(extended))
	} else {
		out.ProjectedTurnout = ceil(out.AverageTurnoutPercent * float64(counts.Total))
	}

	if counts.Total > 0 {
		out.ProjectedTurnoutPercent = float64(out.ProjectedTurnout) / float64(counts.Total)
	}

	if out.ProjectedTurnout > 0 {
		win := WinNumber(out.ProjectedTurnout)
		out.WinNumber = domain.IntPtr(win)
		out.VoterContactGoal = domain.IntPtr(win * ContactsPerVote)
	}

	return out
}

// WinNumber returns ceil(projected × 0.51) using integer arithmetic.
func WinNumber(projected int) int {
	return (projected*winShareNumerator + 99) / 100
}

func mean(values []int) float64 {
	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i] = float64(v)
	}
	return stat.Mean(xs, nil)
}

// ceil rounds up, absorbing float noise such as 500.0000000001.
func ceil(x float64) int {
	return int(math.Ceil(x - ceilTolerance))
}
