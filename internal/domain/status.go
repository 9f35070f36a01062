package domain

import "fmt"

// P2VStatus is the lifecycle state of a path-to-victory record.
type P2VStatus string

const (
	StatusWaiting         P2VStatus = "Waiting"
	StatusFailed          P2VStatus = "Failed"
	StatusDistrictMatched P2VStatus = "DistrictMatched"
	StatusComplete        P2VStatus = "Complete"
)

// rank orders statuses so that a merge never regresses.
// Failed sits above Waiting and below DistrictMatched.
var rank = map[P2VStatus]int{
	StatusWaiting:         0,
	StatusFailed:          1,
	StatusDistrictMatched: 2,
	StatusComplete:        3,
}

// Rank returns the position of s in the status order. Unknown values rank as Waiting.
func (s P2VStatus) Rank() int {
	return rank[s]
}

// Valid reports whether s is a known status.
func (s P2VStatus) Valid() bool {
	_, ok := rank[s]
	return ok
}

// Max returns the higher-ranked of s and other.
func (s P2VStatus) Max(other P2VStatus) P2VStatus {
	if !s.Valid() {
		s = StatusWaiting
	}
	if other.Valid() && other.Rank() > s.Rank() {
		return other
	}
	return s
}

// IsFinal reports whether no further orchestration is expected.
func (s P2VStatus) IsFinal() bool {
	return s == StatusComplete
}

// ParseP2VStatus converts a stored string into a status.
func ParseP2VStatus(s string) (P2VStatus, error) {
	st := P2VStatus(s)
	if s == "" {
		return StatusWaiting, nil
	}
	if !st.Valid() {
		return "", fmt.Errorf("unknown p2v status %q", s)
	}
	return st, nil
}

// CandidateStatus derives the status a single pass earns from its result.
// upstreamFailed marks passes where an external call failed before any data arrived.
func CandidateStatus(match DistrictMatch, counts VoterCounts, upstreamFailed bool) P2VStatus {
	switch {
	case counts.HasVoters() && counts.HasProjection():
		return StatusComplete
	case !match.IsEmpty():
		return StatusDistrictMatched
	case upstreamFailed:
		return StatusWaiting
	default:
		return StatusFailed
	}
}
