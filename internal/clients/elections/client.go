// Package elections provides a client for the election-data service:
// races, their current officeholders and declared candidacies.
package elections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/rs/zerolog"
)

// Result values reported for a candidacy.
const (
	ResultWon  = "WON"
	ResultLost = "LOST"
)

// Person is a named officeholder.
type Person struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
}

// Name returns FullName, or first and last joined when FullName is blank.
func (p Person) Name() string {
	if strings.TrimSpace(p.FullName) != "" {
		return strings.TrimSpace(p.FullName)
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// Candidacy is one filing for the race's position.
type Candidacy struct {
	ID           string `json:"id"`
	Candidate    Person `json:"candidate"`
	ElectionDate string `json:"electionDate"`
	Result       string `json:"result"`
}

// Race is a scheduled contest for a position.
type Race struct {
	ID            string      `json:"id"`
	PositionID    string      `json:"positionId"`
	PositionName  string      `json:"positionName"`
	Level         string      `json:"level"`
	State         string      `json:"state"`
	ElectionDate  string      `json:"electionDate"`
	Seats         int         `json:"numberOfSeats"`
	IsPartisan    bool        `json:"partisan"`
	Officeholders []Person    `json:"officeholders"`
	Candidacies   []Candidacy `json:"candidacies"`
}

// Client is the election-data API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new election-data client.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("client", "elections").Logger(),
	}
}

// GetRace fetches a race with its officeholders and candidacies in one call.
// Returns domain.ErrNotFound for unknown races.
func (c *Client) GetRace(ctx context.Context, raceID, positionID string) (*Race, error) {
	u := fmt.Sprintf("%s/v1/races/%s?positionId=%s", c.baseURL, url.PathEscape(raceID), url.QueryEscape(positionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError("elections", "race", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewUpstreamError("elections", "race", resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("race %s: %w", raceID, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, domain.NewUpstreamError("elections", "race", resp.StatusCode, errors.New(string(body)))
	}

	var race Race
	if err := json.Unmarshal(body, &race); err != nil {
		return nil, domain.NewUpstreamError("elections", "race", resp.StatusCode, fmt.Errorf("failed to decode race: %w", err))
	}

	c.log.Debug().
		Str("race_id", raceID).
		Int("candidacies", len(race.Candidacies)).
		Int("officeholders", len(race.Officeholders)).
		Msg("Fetched race")

	return &race, nil
}
