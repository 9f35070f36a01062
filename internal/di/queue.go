package di

import (
	"github.com/civicgrid/victory/internal/config"
	"github.com/civicgrid/victory/internal/queue"
	"github.com/rs/zerolog"
)

// InitializeQueue creates the worker pool and the trigger transport. NATS is
// used when reachable; otherwise jobs go straight to the in-process pool.
func InitializeQueue(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.WorkerPool = queue.NewWorkerPool(cfg.Queue.Concurrency, processJob(container.Orchestrator), log)

	if cfg.Queue.NATSURL != "" {
		conn, err := queue.Connect(cfg.Queue.NATSURL, "victory")
		if err == nil {
			container.NATSConn = conn
			container.Enqueuer = queue.NewPublisher(conn, cfg.Queue.Subject, log)
			container.Consumer = queue.NewConsumer(conn, cfg.Queue.Subject, cfg.Queue.QueueGroup, container.WorkerPool, log)
			container.Consumer.SetObserver(container.Metrics)
			log.Info().Str("url", cfg.Queue.NATSURL).Str("subject", cfg.Queue.Subject).Msg("Using NATS queue")
		} else {
			log.Warn().Err(err).Str("url", cfg.Queue.NATSURL).Msg("NATS unavailable, using in-process queue")
		}
	}

	if container.Enqueuer == nil {
		container.Enqueuer = queue.NewMemoryQueue(container.WorkerPool)
	}

	container.unsubscribeListeners = queue.RegisterListeners(container.EventBus, container.Enqueuer, container.CampaignRepo, log)
}
