package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/rs/zerolog"
)

// MaxRequeueAttempts stops automatic retries of a record that keeps failing.
const MaxRequeueAttempts = 3

// StaleLister lists campaigns whose records have been Waiting too long.
type StaleLister interface {
	ListStaleWaiting(olderThan time.Time, maxAttempts int) ([]string, error)
}

// CampaignLister loads campaigns in bulk.
type CampaignLister interface {
	ListByIDs(ids []string) ([]campaigns.Campaign, error)
}

// Enqueuer accepts a pass request.
type Enqueuer interface {
	Enqueue(ctx context.Context, q domain.RaceQuery, preset *domain.DistrictMatch) (string, error)
}

// RequeueStaleJob re-enqueues passes for records stuck in Waiting.
type RequeueStaleJob struct {
	log       zerolog.Logger
	records   StaleLister
	campaigns CampaignLister
	enqueuer  Enqueuer
	after     time.Duration
	now       func() time.Time
}

// NewRequeueStaleJob creates a new RequeueStaleJob
func NewRequeueStaleJob(records StaleLister, campaigns CampaignLister, enqueuer Enqueuer, after time.Duration) *RequeueStaleJob {
	return &RequeueStaleJob{
		log:       zerolog.Nop(),
		records:   records,
		campaigns: campaigns,
		enqueuer:  enqueuer,
		after:     after,
		now:       time.Now,
	}
}

// SetLogger sets the logger for the job
func (j *RequeueStaleJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *RequeueStaleJob) Name() string {
	return "requeue_stale_waiting"
}

// Run executes the requeue job
func (j *RequeueStaleJob) Run() error {
	ids, err := j.records.ListStaleWaiting(j.now().Add(-j.after), MaxRequeueAttempts)
	if err != nil {
		return fmt.Errorf("failed to list stale records: %w", err)
	}
	if len(ids) == 0 {
		j.log.Debug().Msg("No stale records")
		return nil
	}

	list, err := j.campaigns.ListByIDs(ids)
	if err != nil {
		return fmt.Errorf("failed to load campaigns: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	enqueued, failed := 0, 0
	for _, c := range list {
		if _, err := j.enqueuer.Enqueue(ctx, c.RaceQuery(), nil); err != nil {
			j.log.Warn().Err(err).Str("campaign_id", c.ID).Msg("Failed to requeue pass")
			failed++
			continue
		}
		enqueued++
	}

	j.log.Info().
		Int("stale", len(ids)).
		Int("enqueued", enqueued).
		Int("failed", failed).
		Msg("Requeued stale records")

	if failed > 0 && enqueued == 0 {
		return fmt.Errorf("failed to requeue %d records", failed)
	}
	return nil
}
