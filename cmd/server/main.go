// Package main is the entry point for the victory service: path-to-victory
// orchestration and viability scoring for campaigns.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/civicgrid/victory/internal/config"
	"github.com/civicgrid/victory/internal/di"
	"github.com/civicgrid/victory/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "victory",
		Short:         "Path-to-victory and viability service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd(), workerCmd(), p2vCmd(), viabilityCmd())
	return cmd
}

// bootstrap loads configuration, builds the root logger and wires the
// container. Callers must close the container.
func bootstrap() (*config.Config, zerolog.Logger, *di.Container, *di.JobInstances, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		return nil, log, nil, nil, fmt.Errorf("failed to wire dependencies: %w", err)
	}
	return cfg, log, container, jobs, nil
}
