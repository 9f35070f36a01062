package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// P2VStatusChangedData describes the outcome of one orchestration pass.
type P2VStatusChangedData struct {
	CampaignID       string `json:"campaign_id"`
	PreviousStatus   string `json:"previous_status"`
	Status           string `json:"status"`
	CandidateStatus  string `json:"candidate_status"`
	ElectionType     string `json:"election_type"`
	ElectionLocation string `json:"election_location"`
	Attempts         int    `json:"attempts"`
	Changed          bool   `json:"changed"`
}

// EventType returns the event type for P2VStatusChangedData
func (d *P2VStatusChangedData) EventType() EventType {
	return P2VStatusChanged
}

// P2VDistrictSetData describes a manual district assignment.
type P2VDistrictSetData struct {
	CampaignID       string `json:"campaign_id"`
	ElectionType     string `json:"election_type"`
	ElectionLocation string `json:"election_location"`
	Status           string `json:"status"`
}

// EventType returns the event type for P2VDistrictSetData
func (d *P2VDistrictSetData) EventType() EventType {
	return P2VDistrictSet
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
