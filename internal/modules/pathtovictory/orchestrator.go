package pathtovictory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/events"
	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/civicgrid/victory/internal/modules/district"
	"github.com/civicgrid/victory/internal/modules/turnout"
	"github.com/rs/zerolog"
)

const moduleName = "pathtovictory"

// DistrictResolver resolves a race to its voter-file district.
type DistrictResolver interface {
	Resolve(ctx context.Context, q domain.RaceQuery) (domain.DistrictMatch, error)
}

// VoterCounter aggregates counts and projects turnout for a district.
type VoterCounter interface {
	Count(ctx context.Context, q domain.RaceQuery, match domain.DistrictMatch) (turnout.Result, error)
}

// CampaignLookup reads campaign identity and flags.
type CampaignLookup interface {
	Get(id string) (*campaigns.Campaign, error)
}

// EventEmitter publishes typed events.
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
	EmitError(module string, err error, context map[string]interface{})
}

// PassRecorder records pass metrics.
type PassRecorder interface {
	ObservePass(status string, d time.Duration)
}

// Orchestrator runs path-to-victory passes.
type Orchestrator struct {
	resolver  DistrictResolver
	counter   VoterCounter
	store     *Store
	campaigns CampaignLookup
	notifier  Notifier
	mailer    Mailer
	events    EventEmitter
	metrics   PassRecorder
	now       func() time.Time
	log       zerolog.Logger
}

// Deps groups orchestrator collaborators. Notifier, Mailer, Events and
// Metrics are optional.
type Deps struct {
	Resolver  DistrictResolver
	Counter   VoterCounter
	Store     *Store
	Campaigns CampaignLookup
	Notifier  Notifier
	Mailer    Mailer
	Events    EventEmitter
	Metrics   PassRecorder
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(deps Deps, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		resolver:  deps.Resolver,
		counter:   deps.Counter,
		store:     deps.Store,
		campaigns: deps.Campaigns,
		notifier:  deps.Notifier,
		mailer:    deps.Mailer,
		events:    deps.Events,
		metrics:   deps.Metrics,
		now:       time.Now,
		log:       log.With().Str("component", "p2v_orchestrator").Logger(),
	}
}

// Run executes one pass for q. A non-empty preset skips district resolution.
// District and voter-data failures degrade the pass status and are not
// returned; only persistence failures are.
func (o *Orchestrator) Run(ctx context.Context, q domain.RaceQuery, preset *domain.DistrictMatch) (PassResult, error) {
	start := o.now()
	log := o.log.With().Str("campaign_id", q.CampaignID).Str("office", q.OfficeName).Str("state", q.State()).Logger()

	var (
		match          domain.DistrictMatch
		passErr        error
		upstreamFailed bool
		result         turnout.Result
	)

	statewide := district.UsesNoDistrict(q)

	switch {
	case preset != nil && !preset.IsEmpty():
		match = *preset
		log.Info().Str("election_type", match.ElectionType).Str("election_location", match.ElectionLocation).Msg("Using preset district")
	default:
		m, err := o.resolver.Resolve(ctx, q)
		if err != nil {
			log.Warn().Err(err).Msg("District resolution failed")
			passErr = err
			upstreamFailed = true
		}
		match = m
	}

	if !upstreamFailed && (!match.IsEmpty() || statewide) {
		res, err := o.counter.Count(ctx, q, match)
		result = res
		if err != nil {
			log.Warn().Err(err).Msg("Voter count aggregation failed")
			passErr = err
			upstreamFailed = true
		}
	}

	passStatus := domain.CandidateStatus(match, result.Counts, upstreamFailed)
	if statewide && passStatus != domain.StatusComplete && result.Counts.HasVoters() {
		passStatus = domain.StatusDistrictMatched
	}

	merged, err := o.store.Apply(ctx, q.CampaignID, Outcome{
		Match:       match,
		Counts:      result.Counts,
		Status:      passStatus,
		Fingerprint: q.Fingerprint(),
		Source:      SourceSilver,
	})

	campaign := o.lookupCampaign(log, q.CampaignID)

	if err != nil {
		log.Error().Err(err).Msg("Failed to persist p2v outcome")
		if o.events != nil {
			o.events.EmitError(moduleName, err, map[string]interface{}{"campaign_id": q.CampaignID})
		}
		o.notify(ctx, log, Pass{Query: q, Campaign: campaign, PassStatus: passStatus, Err: err})
		o.observe(passStatus, start)
		return PassResult{PassStatus: passStatus, Match: match, Err: err}, fmt.Errorf("failed to persist p2v for campaign %s: %w", q.CampaignID, err)
	}

	rec := merged.Record
	log.Info().
		Str("pass_status", string(passStatus)).
		Str("previous_status", string(merged.PreviousStatus)).
		Str("status", string(rec.Status)).
		Int("attempts", rec.Attempts).
		Msg("P2V pass complete")

	if o.events != nil {
		o.events.EmitTyped(moduleName, &events.P2VStatusChangedData{
			CampaignID:       q.CampaignID,
			PreviousStatus:   string(merged.PreviousStatus),
			Status:           string(rec.Status),
			CandidateStatus:  string(passStatus),
			ElectionType:     rec.ElectionType,
			ElectionLocation: rec.ElectionLocation,
			Attempts:         rec.Attempts,
			Changed:          merged.StatusChanged,
		})
	}

	o.notify(ctx, log, Pass{Query: q, Campaign: campaign, PassStatus: passStatus, Record: rec, Err: passErr})

	if merged.FirstComplete && campaign != nil && !campaign.IsAdminCreated && o.mailer != nil {
		if err := o.mailer.SendCompletion(ctx, *campaign, rec); err != nil {
			log.Warn().Err(err).Msg("Failed to send completion email")
		}
	}

	o.observe(rec.Status, start)

	return PassResult{
		Record:         rec,
		PassStatus:     passStatus,
		PreviousStatus: merged.PreviousStatus,
		Match:          match,
		History:        result.History,
		Err:            passErr,
	}, nil
}

// SetDistrict records an operator-chosen district for a campaign. The record
// moves to at least DistrictMatched; counts are refreshed by a later pass.
func (o *Orchestrator) SetDistrict(ctx context.Context, campaignID string, match domain.DistrictMatch) (Record, domain.RaceQuery, error) {
	if match.IsEmpty() {
		return Record{}, domain.RaceQuery{}, &domain.PreconditionError{Operation: "set district", Missing: missingDistrict(match)}
	}

	campaign, err := o.campaigns.Get(campaignID)
	if err != nil {
		return Record{}, domain.RaceQuery{}, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return Record{}, domain.RaceQuery{}, fmt.Errorf("campaign %s: %w", campaignID, domain.ErrNotFound)
	}

	q := campaign.RaceQuery()
	merged, err := o.store.Apply(ctx, campaignID, Outcome{
		Match:       match,
		Status:      domain.StatusDistrictMatched,
		Fingerprint: q.Fingerprint(),
		Source:      SourceAdmin,
		Manual:      true,
	})
	if err != nil {
		return Record{}, q, err
	}

	o.log.Info().
		Str("campaign_id", campaignID).
		Str("election_type", match.ElectionType).
		Str("election_location", match.ElectionLocation).
		Msg("District set manually")

	if o.events != nil {
		o.events.EmitTyped(moduleName, &events.P2VDistrictSetData{
			CampaignID:       campaignID,
			ElectionType:     match.ElectionType,
			ElectionLocation: match.ElectionLocation,
			Status:           string(merged.Record.Status),
		})
	}
	return merged.Record, q, nil
}

// Get returns the stored record for a campaign, or nil.
func (o *Orchestrator) Get(campaignID string) (*Record, error) {
	return o.store.Get(campaignID)
}

func (o *Orchestrator) lookupCampaign(log zerolog.Logger, id string) *campaigns.Campaign {
	if o.campaigns == nil {
		return nil
	}
	c, err := o.campaigns.Get(id)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load campaign")
		return nil
	}
	return c
}

func (o *Orchestrator) notify(ctx context.Context, log zerolog.Logger, p Pass) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.NotifyPass(ctx, p); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("Failed to send p2v notification")
	}
}

func (o *Orchestrator) observe(status domain.P2VStatus, start time.Time) {
	if o.metrics != nil {
		o.metrics.ObservePass(string(status), o.now().Sub(start))
	}
}

func missingDistrict(m domain.DistrictMatch) []string {
	var missing []string
	if m.ElectionType == "" {
		missing = append(missing, "electionType")
	}
	if m.ElectionLocation == "" {
		missing = append(missing, "electionLocation")
	}
	return missing
}
