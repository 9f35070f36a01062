package domain

// VoterCounts aggregates district demographics and derived turnout targets.
// WinNumber and VoterContactGoal are nil until a positive projection exists.
type VoterCounts struct {
	Total           int `json:"total"`
	Democrat        int `json:"democrat"`
	Republican      int `json:"republican"`
	Independent     int `json:"independent"`
	Men             int `json:"men"`
	Women           int `json:"women"`
	White           int `json:"white"`
	Asian           int `json:"asian"`
	Hispanic        int `json:"hispanic"`
	AfricanAmerican int `json:"africanAmerican"`

	AverageTurnout          int     `json:"averageTurnout"`
	AverageTurnoutPercent   float64 `json:"averageTurnoutPercent"`
	ProjectedTurnout        int     `json:"projectedTurnout"`
	ProjectedTurnoutPercent float64 `json:"projectedTurnoutPercent"`
	WinNumber               *int    `json:"winNumber,omitempty"`
	VoterContactGoal        *int    `json:"voterContactGoal,omitempty"`
}

// HasVoters reports whether the district contains any voters.
func (c VoterCounts) HasVoters() bool {
	return c.Total > 0
}

// HasProjection reports whether a positive turnout projection exists.
func (c VoterCounts) HasProjection() bool {
	return c.ProjectedTurnout > 0
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
