// Package queue carries path-to-victory trigger messages from producers to a
// bounded pool of workers, over NATS or in process.
package queue

import (
	"context"
	"time"

	"github.com/civicgrid/victory/internal/domain"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypePathToVictory runs one path-to-victory pass for a campaign.
	JobTypePathToVictory JobType = "pathToVictory"
)

// Job is a decoded trigger ready for processing.
type Job struct {
	ID        string
	Type      JobType
	Query     domain.RaceQuery
	Preset    *domain.DistrictMatch
	CreatedAt time.Time
}

// ProcessFunc handles one job.
type ProcessFunc func(ctx context.Context, job Job) error

// Enqueuer accepts a pass request and returns the job ID.
type Enqueuer interface {
	Enqueue(ctx context.Context, q domain.RaceQuery, preset *domain.DistrictMatch) (string, error)
}
