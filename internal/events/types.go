// Package events provides in-process event emission for status transitions.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	// P2VStatusChanged is emitted after every orchestration pass.
	P2VStatusChanged EventType = "P2V_STATUS_CHANGED"
	// P2VDistrictSet is emitted when an operator sets a district manually.
	P2VDistrictSet EventType = "P2V_DISTRICT_SET"
	// ErrorOccurred is emitted when a pass fails to persist.
	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// Event is a system event as delivered to bus subscribers.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
