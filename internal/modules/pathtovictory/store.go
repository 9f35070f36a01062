package pathtovictory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/civicgrid/victory/internal/domain"
	"github.com/rs/zerolog"
)

// MaxMergeAttempts bounds read-merge-write retries on version conflicts.
const MaxMergeAttempts = 5

// RecordStore reads and conditionally writes records.
type RecordStore interface {
	Get(campaignID string) (*Record, error)
	Save(rec Record, baseline *Record) error
}

// Store applies outcomes to persisted records atomically relative to the
// baseline read, retrying on concurrent writes.
type Store struct {
	records    RecordStore
	newBackOff func() backoff.BackOff
	now        func() time.Time
	log        zerolog.Logger
}

// NewStore creates a Store over records.
func NewStore(records RecordStore, log zerolog.Logger) *Store {
	return &Store{
		records: records,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			return b
		},
		now: time.Now,
		log: log.With().Str("component", "p2v_store").Logger(),
	}
}

// Get returns the current record, or nil.
func (s *Store) Get(campaignID string) (*Record, error) {
	return s.records.Get(campaignID)
}

// Apply merges the outcome into the stored record for campaignID.
// It returns domain.ErrMergeConflict when every attempt lost a race.
func (s *Store) Apply(ctx context.Context, campaignID string, in Outcome) (MergeResult, error) {
	var result MergeResult
	attempt := 0

	op := func() error {
		attempt++
		baseline, err := s.records.Get(campaignID)
		if err != nil {
			return backoff.Permanent(err)
		}

		result = Merge(baseline, campaignID, in, s.now())
		err = s.records.Save(result.Record, baseline)
		if errors.Is(err, domain.ErrMergeConflict) {
			s.log.Debug().Str("campaign_id", campaignID).Int("attempt", attempt).Msg("P2V record changed concurrently, retrying merge")
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), MaxMergeAttempts-1), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return MergeResult{}, fmt.Errorf("failed to apply p2v outcome after %d attempts: %w", attempt, err)
	}
	return result, nil
}
