package queue

import (
	"context"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/google/uuid"
)

// MemoryQueue submits jobs straight to a local worker pool. It is used when
// no NATS server is configured and by tests.
type MemoryQueue struct {
	pool *WorkerPool
}

// NewMemoryQueue creates an in-process queue over pool.
func NewMemoryQueue(pool *WorkerPool) *MemoryQueue {
	return &MemoryQueue{pool: pool}
}

// Enqueue implements Enqueuer. It blocks while the pool is saturated.
func (m *MemoryQueue) Enqueue(ctx context.Context, q domain.RaceQuery, preset *domain.DistrictMatch) (string, error) {
	job := Job{
		ID:        uuid.NewString(),
		Type:      JobTypePathToVictory,
		Query:     q,
		Preset:    preset,
		CreatedAt: time.Now(),
	}
	if err := m.pool.Submit(ctx, job); err != nil {
		return "", err
	}
	return job.ID, nil
}
