// Package turnout aggregates district voter counts and projects turnout,
// win number and voter-contact goal from historical turnout.
package turnout

import (
	"context"
	"fmt"
	"strings"

	"github.com/civicgrid/victory/internal/clients/voterdata"
	"github.com/civicgrid/victory/internal/domain"
	"github.com/rs/zerolog"
)

// Counter runs the count aggregation pipeline against the voter-file API.
// Calls are strictly sequential; pacing is applied by the API client.
type Counter struct {
	voters voterdata.API
	log    zerolog.Logger
}

// NewCounter creates a count aggregator.
func NewCounter(voters voterdata.API, log zerolog.Logger) *Counter {
	return &Counter{
		voters: voters,
		log:    log.With().Str("component", "turnout_counter").Logger(),
	}
}

// Result is the output of one aggregation run.
type Result struct {
	Counts  domain.VoterCounts
	History []int
}

// Count aggregates counts for the district and projects turnout.
// Order: party, early exit on an empty district, gender, ethnicity, column
// metadata, then one turnout estimate per prior cycle. On error the counts
// gathered so far are returned with it.
func (c *Counter) Count(ctx context.Context, q domain.RaceQuery, match domain.DistrictMatch) (Result, error) {
	state := q.State()
	filter := voterdata.DistrictFilter(match.ElectionType, match.ElectionLocation)
	log := c.log.With().
		Str("campaign_id", q.CampaignID).
		Str("state", state).
		Str("election_type", match.ElectionType).
		Str("election_location", match.ElectionLocation).
		Logger()

	var res Result

	partyRows, err := c.voters.Counts(ctx, state, filter, voterdata.DimensionParty)
	if err != nil {
		return res, fmt.Errorf("party counts: %w", err)
	}
	applyParty(&res.Counts, partyRows)

	if res.Counts.Total == 0 {
		log.Info().Msg("District has no voters, skipping further aggregation")
		return res, nil
	}

	genderRows, err := c.voters.Counts(ctx, state, filter, voterdata.DimensionGender)
	if err != nil {
		return res, fmt.Errorf("gender counts: %w", err)
	}
	applyGender(&res.Counts, genderRows)

	ethnicRows, err := c.voters.Counts(ctx, state, filter, voterdata.DimensionEthnicity)
	if err != nil {
		return res, fmt.Errorf("ethnicity counts: %w", err)
	}
	applyEthnicity(&res.Counts, ethnicRows)

	columns, err := c.voters.Columns(ctx, state)
	if err != nil {
		return res, fmt.Errorf("column metadata: %w", err)
	}

	target, err := q.Date()
	if err != nil {
		return res, fmt.Errorf("invalid election date %q: %w", q.ElectionDate, err)
	}

	res.History = c.history(ctx, log, state, filter, planHistory(q, match, target, columns))
	res.Counts = Project(res.Counts, res.History)

	log.Info().
		Int("total", res.Counts.Total).
		Ints("history", res.History).
		Int("projected_turnout", res.Counts.ProjectedTurnout).
		Msg("Voter counts aggregated")

	return res, nil
}

// history probes each cycle plan in order and keeps the first positive
// estimate per cycle. A failed lookup counts as no data for that cycle.
func (c *Counter) history(ctx context.Context, log zerolog.Logger, state string, filter voterdata.Filter, plans []cyclePlan) []int {
	var out []int
	for _, plan := range plans {
		for _, col := range plan.Columns {
			if ctx.Err() != nil {
				return out
			}
			n, err := c.voters.TurnoutEstimate(ctx, state, filter, col)
			if err != nil {
				log.Warn().Err(err).Str("column", col).Int("year", plan.Year).Msg("Turnout estimate failed, treating cycle as missing")
				continue
			}
			if n > 0 {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func applyParty(counts *domain.VoterCounts, rows []voterdata.CountRow) {
	counts.Total = voterdata.SumCounts(rows)
	for _, r := range rows {
		v := strings.ToLower(r.Value)
		switch {
		case strings.Contains(v, "democrat"):
			counts.Democrat += r.Count
		case strings.Contains(v, "republican"):
			counts.Republican += r.Count
		}
	}
	counts.Independent = counts.Total - counts.Democrat - counts.Republican
}

func applyGender(counts *domain.VoterCounts, rows []voterdata.CountRow) {
	for _, r := range rows {
		switch strings.ToUpper(strings.TrimSpace(r.Value)) {
		case "M", "MALE":
			counts.Men += r.Count
		case "F", "FEMALE":
			counts.Women += r.Count
		}
	}
}

func applyEthnicity(counts *domain.VoterCounts, rows []voterdata.CountRow) {
	for _, r := range rows {
		v := strings.ToLower(r.Value)
		switch {
		case strings.Contains(v, "european"), strings.Contains(v, "white"):
			counts.White += r.Count
		case strings.Contains(v, "asian"):
			counts.Asian += r.Count
		case strings.Contains(v, "hispanic"):
			counts.Hispanic += r.Count
		case strings.Contains(v, "african"):
			counts.AfricanAmerican += r.Count
		}
	}
}
