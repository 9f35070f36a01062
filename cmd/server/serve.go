package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/civicgrid/victory/internal/config"
	"github.com/civicgrid/victory/internal/di"
	campaignhandlers "github.com/civicgrid/victory/internal/modules/campaigns/handlers"
	p2vhandlers "github.com/civicgrid/victory/internal/modules/pathtovictory/handlers"
	viabilityhandlers "github.com/civicgrid/victory/internal/modules/viability/handlers"
	"github.com/civicgrid/victory/internal/server"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, queue worker and scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(true)
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run only the queue worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false)
		},
	}
}

func run(withHTTP bool) error {
	cfg, log, container, jobs, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := container.Close(ctx); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if container.Consumer != nil {
		if err := container.Consumer.Start(ctx); err != nil {
			return err
		}
		log.Info().Msg("Queue consumer started")
	}

	if withHTTP {
		jobs.Scheduler.Start()
		defer jobs.Scheduler.Stop()

		srv := newServer(cfg, container, jobs, log)
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutdown signal received")
		return nil
	})

	log.Info().Bool("http", withHTTP).Msg("Victory started")
	return g.Wait()
}

func newServer(cfg *config.Config, c *di.Container, jobs *di.JobInstances, log zerolog.Logger) *server.Server {
	system := server.NewSystemHandlers(log, cfg.DataDir, c.P2VRepo, c.P2VDB, c.ClientDataDB)
	system.SetJobs(jobs.All()...)

	return server.New(server.Config{
		Log:      log,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
		EventBus: c.EventBus,
		System:   system,
		Metrics:  c.Metrics.Handler(),
		Modules: []server.RouteRegistrar{
			campaignhandlers.NewHandler(c.CampaignRepo, log),
			p2vhandlers.NewHandler(c.Orchestrator, c.CampaignRepo, c.Enqueuer, log),
			viabilityhandlers.NewHandler(c.ViabilityScorer, c.Metrics, log),
		},
	})
}
