// Package viability scores a campaign's probability of winning from race
// structure with a fixed logistic model.
package viability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/civicgrid/victory/internal/clients/elections"
	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/rs/zerolog"
)

// Score is the computed viability of a campaign. It is not persisted.
type Score struct {
	Level             domain.ElectionLevel `json:"level"`
	IsPartisan        bool                 `json:"isPartisan"`
	IsIncumbent       bool                 `json:"isIncumbent"`
	IsUncontested     bool                 `json:"isUncontested"`
	IsOpenSeat        bool                 `json:"isOpenSeat"`
	Candidates        int                  `json:"candidates"`
	Seats             int                  `json:"seats"`
	CandidatesPerSeat float64              `json:"candidatesPerSeat"`
	OfficeType        string               `json:"officeType"`
	Score             int                  `json:"score"`
	ProbOfWin         float64              `json:"probOfWin"`
}

// RaceSource fetches race data.
type RaceSource interface {
	GetRace(ctx context.Context, raceID, positionID string) (*elections.Race, error)
}

// CampaignLookup loads a campaign by ID.
type CampaignLookup interface {
	Get(id string) (*campaigns.Campaign, error)
}

// Scorer computes viability scores.
type Scorer struct {
	campaigns CampaignLookup
	races     RaceSource
	log       zerolog.Logger
}

// NewScorer creates a viability scorer.
func NewScorer(campaigns CampaignLookup, races RaceSource, log zerolog.Logger) *Scorer {
	return &Scorer{
		campaigns: campaigns,
		races:     races,
		log:       log.With().Str("component", "viability_scorer").Logger(),
	}
}

// Score computes the viability of a campaign. Missing race linkage fails
// with a *domain.PreconditionError; all other errors propagate unchanged.
func (s *Scorer) Score(ctx context.Context, campaignID string) (Score, error) {
	c, err := s.campaigns.Get(campaignID)
	if err != nil {
		return Score{}, err
	}
	if c == nil {
		return Score{}, fmt.Errorf("campaign %s: %w", campaignID, domain.ErrNotFound)
	}

	var missing []string
	if strings.TrimSpace(c.ElectionState) == "" {
		missing = append(missing, "electionState")
	}
	if strings.TrimSpace(c.RaceID) == "" {
		missing = append(missing, "raceId")
	}
	if strings.TrimSpace(c.PositionID) == "" {
		missing = append(missing, "positionId")
	}
	if len(missing) > 0 {
		return Score{}, &domain.PreconditionError{Operation: "viability score", Missing: missing}
	}

	race, err := s.races.GetRace(ctx, c.RaceID, c.PositionID)
	if err != nil {
		return Score{}, err
	}

	score := Compute(*c, *race)
	s.log.Info().
		Str("campaign_id", campaignID).
		Str("office_type", score.OfficeType).
		Int("candidates", score.Candidates).
		Int("seats", score.Seats).
		Bool("incumbent", score.IsIncumbent).
		Float64("prob_of_win", score.ProbOfWin).
		Int("score", score.Score).
		Msg("Viability scored")
	return score, nil
}

// Compute derives the score from a campaign and its race.
func Compute(c campaigns.Campaign, race elections.Race) Score {
	level := domain.ParseElectionLevel(race.Level)
	if strings.TrimSpace(race.Level) == "" {
		level = domain.ParseElectionLevel(c.ElectionLevel)
	}

	office := race.PositionName
	if strings.TrimSpace(office) == "" {
		office = c.OfficeName
	}

	state := race.State
	if strings.TrimSpace(state) == "" {
		state = c.ElectionState
	}

	self := c.CandidateName()
	target := race.ElectionDate
	if target == "" {
		target = c.ElectionDate
	}

	opponents := Opponents(race.Candidacies, self, target)
	candidates := opponents + 1
	seats := race.Seats

	// Declared candidates are the other candidacies; the campaign is added on top.
	openSeat := false
	switch {
	case seats > 0:
		openSeat = opponents < seats
	default:
		openSeat = opponents == 1
	}

	uncontested := candidates <= 1
	if seats > 0 {
		uncontested = candidates <= seats
	}

	perSeat := float64(candidates)
	if seats > 0 {
		perSeat = float64(candidates) / float64(seats)
	}

	f := Factors{
		Level:       level,
		IsPartisan:  race.IsPartisan,
		IsIncumbent: IsIncumbent(race.Officeholders, self),
		OpenSeat:    openSeat,
		Seats:       seats,
		Opponents:   opponents,
		State:       state,
		OfficeType:  OfficeType(office),
	}
	p := Probability(f)

	return Score{
		Level:             level,
		IsPartisan:        f.IsPartisan,
		IsIncumbent:       f.IsIncumbent,
		IsUncontested:     uncontested,
		IsOpenSeat:        openSeat,
		Candidates:        candidates,
		Seats:             seats,
		CandidatesPerSeat: perSeat,
		OfficeType:        f.OfficeType,
		Score:             Rating(p),
		ProbOfWin:         p,
	}
}

// IsIncumbent reports whether name exactly matches a current officeholder,
// ignoring case.
func IsIncumbent(officeholders []elections.Person, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, p := range officeholders {
		if strings.EqualFold(p.Name(), name) {
			return true
		}
	}
	return false
}

// Opponents counts distinct named candidacies other than self. Candidacies
// marked LOST on or before the target date are dropped.
func Opponents(candidacies []elections.Candidacy, self, targetDate string) int {
	target, targetErr := domain.ParseElectionDate(targetDate)
	seen := make(map[string]bool)
	selfKey := strings.ToLower(strings.TrimSpace(self))

	for _, cand := range candidacies {
		key := strings.ToLower(cand.Candidate.Name())
		if key == "" || key == selfKey || seen[key] {
			continue
		}
		if strings.EqualFold(cand.Result, elections.ResultLost) && lostBy(cand.ElectionDate, target, targetErr) {
			continue
		}
		seen[key] = true
	}
	return len(seen)
}

func lostBy(date string, target time.Time, targetErr error) bool {
	if targetErr != nil {
		return true
	}
	d, err := domain.ParseElectionDate(date)
	if err != nil {
		return true
	}
	return !d.After(target)
}
