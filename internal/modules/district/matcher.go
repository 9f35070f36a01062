// Package district resolves an office and jurisdiction to the voter-file
// column and value that identify the candidate's district.
package district

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/civicgrid/victory/internal/clients/voterdata"
	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/modules/labelmatch"
	"github.com/rs/zerolog"
)

// MaxAttempts bounds the number of column/value pairs verified per resolution.
const MaxAttempts = 10

// LabelMatcher picks one label from a set.
type LabelMatcher interface {
	Match(ctx context.Context, query string, labels []string) (string, error)
}

// VoterData is the subset of the voter-file API the matcher needs.
type VoterData interface {
	Columns(ctx context.Context, state string) ([]voterdata.Column, error)
	ColumnValues(ctx context.Context, state, column string) ([]string, error)
	Counts(ctx context.Context, state string, filter voterdata.Filter, dimension string) ([]voterdata.CountRow, error)
}

// Matcher implements district resolution.
type Matcher struct {
	labels LabelMatcher
	voters VoterData
	log    zerolog.Logger
}

// NewMatcher creates a district matcher.
func NewMatcher(labels LabelMatcher, voters VoterData, log zerolog.Logger) *Matcher {
	return &Matcher{
		labels: labels,
		voters: voters,
		log:    log.With().Str("component", "district_matcher").Logger(),
	}
}

// Resolve finds the district for q. An empty DistrictMatch with a nil error
// means no district applies or none was found. An error is returned only when
// upstream failures prevented every candidate from being evaluated.
func (m *Matcher) Resolve(ctx context.Context, q domain.RaceQuery) (domain.DistrictMatch, error) {
	log := m.log.With().Str("campaign_id", q.CampaignID).Str("office", q.OfficeName).Str("state", q.State()).Logger()

	if UsesNoDistrict(q) {
		log.Info().Msg("Race uses no district filter")
		return domain.DistrictMatch{}, nil
	}

	candidates, err := m.candidateColumns(ctx, q)
	if err != nil {
		return domain.DistrictMatch{}, err
	}
	log.Debug().Strs("columns", candidates).Msg("Candidate district columns")

	search := searchString(q)
	attempts := 0
	evaluated := 0
	var lastErr error

	for _, column := range candidates {
		if attempts >= MaxAttempts {
			log.Info().Int("attempts", attempts).Msg("District match attempt cap reached")
			break
		}
		if err := ctx.Err(); err != nil {
			return domain.DistrictMatch{}, err
		}

		values, err := m.voters.ColumnValues(ctx, q.State(), column)
		if err != nil {
			log.Warn().Err(err).Str("column", column).Msg("Failed to fetch column values")
			lastErr = err
			continue
		}
		values = nonEmpty(values)
		if len(values) == 0 {
			evaluated++
			continue
		}

		value, err := m.labels.Match(ctx, search, values)
		if errors.Is(err, domain.ErrNoMatch) {
			evaluated++
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("column", column).Msg("Label match failed")
			lastErr = err
			continue
		}

		attempts++
		rows, err := m.voters.Counts(ctx, q.State(), voterdata.DistrictFilter(column, value), "")
		if err != nil {
			log.Warn().Err(err).Str("column", column).Str("value", value).Msg("Failed to verify district count")
			lastErr = err
			continue
		}
		evaluated++

		if total := voterdata.SumCounts(rows); total > 0 {
			log.Info().Str("column", column).Str("value", value).Int("total", total).Msg("District matched")
			return domain.DistrictMatch{ElectionType: column, ElectionLocation: value}, nil
		}
		log.Debug().Str("column", column).Str("value", value).Msg("Matched value has no voters")
	}

	if evaluated == 0 && lastErr != nil {
		return domain.DistrictMatch{}, fmt.Errorf("district resolution failed: %w", lastErr)
	}

	log.Info().Int("attempts", attempts).Msg("No district match found")
	return domain.DistrictMatch{}, nil
}

// candidateColumns builds the ordered column list: sub-area columns, then
// category-inferred district columns, then jurisdiction columns. Only
// columns present in the state's voter file survive.
func (m *Matcher) candidateColumns(ctx context.Context, q domain.RaceQuery) ([]string, error) {
	columns, err := m.voters.Columns(ctx, q.State())
	if err != nil {
		return nil, fmt.Errorf("failed to load columns for %s: %w", q.State(), err)
	}

	present := make(map[string]bool, len(columns))
	var electionTypes []string
	for _, c := range columns {
		present[c.ID] = true
		if c.Category == voterdata.CategoryElectionType {
			electionTypes = append(electionTypes, c.ID)
		}
	}

	ordered := append([]string{}, subAreaColumns(q)...)
	ordered = append(ordered, m.miscColumns(ctx, q, electionTypes)...)
	ordered = append(ordered, jurisdictionColumns(q)...)

	var out []string
	for _, c := range dedupe(ordered) {
		if present[c] {
			out = append(out, c)
		}
	}
	return out, nil
}

// miscColumns infers special-district columns from the office category,
// asking the label matcher over every ElectionType column when no
// category rule narrows them.
func (m *Matcher) miscColumns(ctx context.Context, q domain.RaceQuery, electionTypes []string) []string {
	if len(electionTypes) == 0 {
		return nil
	}

	category := labelmatch.InferCategory(q.OfficeName)
	if cols := labelmatch.FilterByCategory(category, electionTypes); len(cols) > 0 {
		return cols
	}

	col, err := m.labels.Match(ctx, strings.TrimSpace(q.OfficeName+" "+q.State()), electionTypes)
	if err != nil {
		if !errors.Is(err, domain.ErrNoMatch) {
			m.log.Warn().Err(err).Str("category", category).Msg("Misc district column lookup failed")
		}
		return nil
	}
	return []string{col}
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
