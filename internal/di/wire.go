package di

import (
	"context"
	"fmt"

	"github.com/civicgrid/victory/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
//  1. Databases
//  2. Repositories
//  3. Clients and services
//  4. Queue and event listeners
//  5. Jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := InitializeRepositories(container, log); err != nil {
		container.Close(context.Background())
		return nil, nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close(context.Background())
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	InitializeQueue(container, cfg, log)

	jobs, err := RegisterJobs(container, cfg, log)
	if err != nil {
		container.Close(context.Background())
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")
	return container, jobs, nil
}

// Close stops the queue, waits for running jobs within ctx, and closes the
// databases. It is safe on a partially wired container.
func (c *Container) Close(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.unsubscribeListeners != nil {
		c.unsubscribeListeners()
	}
	if c.Consumer != nil {
		keep(c.Consumer.Stop())
	}
	if c.WorkerPool != nil {
		keep(c.WorkerPool.Stop(ctx))
	}
	if c.NATSConn != nil {
		c.NATSConn.Close()
	}
	if c.P2VDB != nil {
		keep(c.P2VDB.Close())
	}
	if c.ClientDataDB != nil {
		keep(c.ClientDataDB.Close())
	}
	return firstErr
}
