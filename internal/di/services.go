package di

import (
	"context"
	"fmt"

	"github.com/civicgrid/victory/internal/clients/elections"
	"github.com/civicgrid/victory/internal/clients/llm"
	"github.com/civicgrid/victory/internal/clients/slack"
	"github.com/civicgrid/victory/internal/clients/voterdata"
	"github.com/civicgrid/victory/internal/config"
	"github.com/civicgrid/victory/internal/events"
	"github.com/civicgrid/victory/internal/metrics"
	"github.com/civicgrid/victory/internal/modules/district"
	"github.com/civicgrid/victory/internal/modules/labelmatch"
	"github.com/civicgrid/victory/internal/modules/pathtovictory"
	"github.com/civicgrid/victory/internal/modules/turnout"
	"github.com/civicgrid/victory/internal/modules/viability"
	"github.com/civicgrid/victory/internal/queue"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients, the matching pipeline, the
// orchestrator and the viability scorer.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)
	container.Metrics = metrics.New()

	// Clients
	var pacer voterdata.Pacer = voterdata.NewRandomDelay(cfg.VoterData.MinDelay, cfg.VoterData.MaxDelay)
	if cfg.VoterData.MaxDelay == 0 {
		pacer = voterdata.NoDelay{}
	}
	container.VoterData = voterdata.NewClient(voterdata.Config{
		BaseURL:    cfg.VoterData.BaseURL,
		CustomerID: cfg.VoterData.CustomerID,
		APIID:      cfg.VoterData.APIID,
		APIKey:     cfg.VoterData.APIKey,
		Timeout:    cfg.VoterData.Timeout,
	}, pacer, container.ClientDataRepo, log)
	container.VoterData.SetObserver(container.Metrics)
	if !cfg.HasVoterDataCredentials() {
		log.Warn().Msg("Voter data credentials missing, passes will stay Waiting")
	}

	llmClient, err := llm.NewClient(llm.Config{
		Provider: cfg.AI.Provider,
		BaseURL:  cfg.AI.BaseURL,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
		Timeout:  cfg.AI.Timeout,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}
	container.LLM = llmClient

	container.Elections = elections.NewClient(cfg.Elections.BaseURL, cfg.Elections.Token, cfg.Elections.Timeout, log)
	container.Slack = slack.NewClient(cfg.Slack.SuccessWebhookURL, cfg.Slack.IssuesWebhookURL, log)

	// Matching and counting pipeline
	container.LabelMatcher = labelmatch.NewMatcher(container.LLM, log)
	container.DistrictMatcher = district.NewMatcher(container.LabelMatcher, container.VoterData, log)
	container.TurnoutCounter = turnout.NewCounter(container.VoterData, log)

	container.P2VStore = pathtovictory.NewStore(container.P2VRepo, log)
	container.Orchestrator = pathtovictory.NewOrchestrator(pathtovictory.Deps{
		Resolver:  container.DistrictMatcher,
		Counter:   container.TurnoutCounter,
		Store:     container.P2VStore,
		Campaigns: container.CampaignRepo,
		Notifier:  pathtovictory.NewSlackNotifier(container.Slack, log),
		Mailer:    pathtovictory.NewLogMailer(log),
		Events:    container.EventManager,
		Metrics:   container.Metrics,
	}, log)

	container.ViabilityScorer = viability.NewScorer(container.CampaignRepo, container.Elections, log)

	log.Info().Msg("Services initialized")
	return nil
}

// processJob runs one queued path-to-victory pass.
func processJob(orch *pathtovictory.Orchestrator) queue.ProcessFunc {
	return func(ctx context.Context, job queue.Job) error {
		_, err := orch.Run(ctx, job.Query, job.Preset)
		return err
	}
}
