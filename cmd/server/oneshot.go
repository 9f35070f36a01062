package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/civicgrid/victory/internal/domain"
)

func p2vCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "p2v",
		Short: "Path-to-victory tools",
	}

	var electionType, electionLocation string
	runCmd := &cobra.Command{
		Use:   "run <campaignId>",
		Short: "Run one path-to-victory pass synchronously and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, container, _, err := bootstrap()
			if err != nil {
				return err
			}
			defer container.Close(context.Background())

			c, err := container.CampaignRepo.Get(args[0])
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("campaign %s: %w", args[0], domain.ErrNotFound)
			}

			var preset *domain.DistrictMatch
			if electionType != "" || electionLocation != "" {
				preset = &domain.DistrictMatch{ElectionType: electionType, ElectionLocation: electionLocation}
			}

			result, err := container.Orchestrator.Run(cmd.Context(), c.RaceQuery(), preset)
			if err != nil {
				return err
			}
			if result.Err != nil {
				log.Warn().Err(result.Err).Msg("Pass degraded")
			}
			return printJSON(result)
		},
	}
	runCmd.Flags().StringVar(&electionType, "election-type", "", "Skip resolution and use this district column")
	runCmd.Flags().StringVar(&electionLocation, "election-location", "", "District value for --election-type")

	cmd.AddCommand(runCmd)
	return cmd
}

func viabilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "viability <campaignId>",
		Short: "Score a campaign's viability and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, container, _, err := bootstrap()
			if err != nil {
				return err
			}
			defer container.Close(context.Background())

			score, err := container.ViabilityScorer.Score(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(score)
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
