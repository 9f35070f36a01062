package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/google/uuid"
)

// ErrUnknownType marks messages whose type no worker handles.
var ErrUnknownType = errors.New("unknown message type")

// Message is the wire envelope on the trigger subject.
type Message struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data"`
}

// PathToVictoryData is the payload of a pathToVictory message.
type PathToVictoryData struct {
	CampaignID           string   `json:"campaignId"`
	OfficeName           string   `json:"officeName"`
	ElectionDate         string   `json:"electionDate"`
	ElectionTerm         flexInt  `json:"electionTerm"`
	ElectionLevel        string   `json:"electionLevel"`
	ElectionState        string   `json:"electionState"`
	ElectionCounty       string   `json:"electionCounty,omitempty"`
	ElectionMunicipality string   `json:"electionMunicipality,omitempty"`
	SubAreaName          string   `json:"subAreaName,omitempty"`
	SubAreaValue         string   `json:"subAreaValue,omitempty"`
	PartisanType         string   `json:"partisanType"`
	PriorElectionDates   []string `json:"priorElectionDates"`
	ElectionType         string   `json:"electionType,omitempty"`
	ElectionLocation     string   `json:"electionLocation,omitempty"`
}

// Validate checks the fields every pass needs.
func (d PathToVictoryData) Validate() error {
	var missing []string
	if strings.TrimSpace(d.CampaignID) == "" {
		missing = append(missing, "campaignId")
	}
	if strings.TrimSpace(d.OfficeName) == "" {
		missing = append(missing, "officeName")
	}
	if strings.TrimSpace(d.ElectionState) == "" {
		missing = append(missing, "electionState")
	}
	if strings.TrimSpace(d.ElectionDate) == "" {
		missing = append(missing, "electionDate")
	} else if _, err := domain.ParseElectionDate(d.ElectionDate); err != nil {
		return fmt.Errorf("invalid electionDate %q: %w", d.ElectionDate, err)
	}
	if len(missing) > 0 {
		return &domain.PreconditionError{Operation: "pathToVictory message", Missing: missing}
	}
	return nil
}

// Query converts the payload into a RaceQuery.
func (d PathToVictoryData) Query() domain.RaceQuery {
	return domain.RaceQuery{
		CampaignID:           d.CampaignID,
		OfficeName:           d.OfficeName,
		ElectionLevel:        domain.ParseElectionLevel(d.ElectionLevel),
		ElectionState:        d.ElectionState,
		ElectionCounty:       d.ElectionCounty,
		ElectionMunicipality: d.ElectionMunicipality,
		ElectionDate:         d.ElectionDate,
		ElectionTerm:         int(d.ElectionTerm),
		PartisanType:         d.PartisanType,
		SubAreaName:          d.SubAreaName,
		SubAreaValue:         d.SubAreaValue,
		PriorElectionDates:   d.PriorElectionDates,
	}
}

// Preset returns the supplied district, or nil when none was supplied.
func (d PathToVictoryData) Preset() *domain.DistrictMatch {
	m := domain.DistrictMatch{ElectionType: d.ElectionType, ElectionLocation: d.ElectionLocation}
	if m.IsEmpty() {
		return nil
	}
	return &m
}

// NewPathToVictoryMessage builds the wire message for a pass.
func NewPathToVictoryMessage(q domain.RaceQuery, preset *domain.DistrictMatch) (Message, error) {
	data := PathToVictoryData{
		CampaignID:           q.CampaignID,
		OfficeName:           q.OfficeName,
		ElectionDate:         q.ElectionDate,
		ElectionTerm:         flexInt(q.ElectionTerm),
		ElectionLevel:        string(q.ElectionLevel),
		ElectionState:        q.ElectionState,
		ElectionCounty:       q.ElectionCounty,
		ElectionMunicipality: q.ElectionMunicipality,
		SubAreaName:          q.SubAreaName,
		SubAreaValue:         q.SubAreaValue,
		PartisanType:         q.PartisanType,
		PriorElectionDates:   q.PriorElectionDates,
	}
	if preset != nil {
		data.ElectionType = preset.ElectionType
		data.ElectionLocation = preset.ElectionLocation
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal message data: %w", err)
	}
	return Message{Type: string(JobTypePathToVictory), ID: uuid.NewString(), Data: raw}, nil
}

// Decode parses and validates a wire message into a Job.
// Messages of another type return ErrUnknownType.
func Decode(body []byte) (Job, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Job{}, fmt.Errorf("failed to decode message: %w", err)
	}
	if msg.Type != string(JobTypePathToVictory) {
		return Job{}, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	var data PathToVictoryData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return Job{}, fmt.Errorf("failed to decode pathToVictory data: %w", err)
	}
	if err := data.Validate(); err != nil {
		return Job{}, err
	}

	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}
	return Job{
		ID:        id,
		Type:      JobTypePathToVictory,
		Query:     data.Query(),
		Preset:    data.Preset(),
		CreatedAt: time.Now(),
	}, nil
}

// flexInt accepts a JSON number, a numeric string or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*f = flexInt(n)
	return nil
}
