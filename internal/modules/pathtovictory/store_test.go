package pathtovictory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/civicgrid/victory/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// conflictingStore fails the first n saves with a merge conflict.
type conflictingStore struct {
	mu        sync.Mutex
	conflicts int
	saves     int
	rec       *Record
	getErr    error
}

func (s *conflictingStore) Get(string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.rec == nil {
		return nil, nil
	}
	cp := *s.rec
	return &cp, nil
}

func (s *conflictingStore) Save(rec Record, _ *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saves <= s.conflicts {
		return domain.ErrMergeConflict
	}
	s.rec = &rec
	return nil
}

func newTestStore(records RecordStore) *Store {
	s := NewStore(records, zerolog.Nop())
	s.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return s
}

func TestStore_RetriesConflicts(t *testing.T) {
	records := &conflictingStore{conflicts: 2}
	s := newTestStore(records)

	res, err := s.Apply(context.Background(), "c", Outcome{Status: domain.StatusDistrictMatched})
	require.NoError(t, err)
	assert.Equal(t, 3, records.saves)
	assert.Equal(t, domain.StatusDistrictMatched, res.Record.Status)
}

func TestStore_GivesUpAfterMaxAttempts(t *testing.T) {
	records := &conflictingStore{conflicts: 100}
	s := newTestStore(records)

	_, err := s.Apply(context.Background(), "c", Outcome{Status: domain.StatusComplete})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMergeConflict)
	assert.Equal(t, MaxMergeAttempts, records.saves)
}

func TestStore_ReadErrorIsNotRetried(t *testing.T) {
	records := &conflictingStore{getErr: errors.New("disk I/O error")}
	s := newTestStore(records)

	_, err := s.Apply(context.Background(), "c", Outcome{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Equal(t, 0, records.saves)
}

func TestStore_ConcurrentAppliesAgainstDatabase(t *testing.T) {
	repo := newTestRepository(t)
	s := newTestStore(repo)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Apply(context.Background(), "c", Outcome{Status: domain.StatusWaiting, Fingerprint: "fp"})
		}()
	}
	wg.Wait()

	_, err := s.Apply(context.Background(), "c", Outcome{
		Match:       domain.DistrictMatch{ElectionType: "City_Council", ElectionLocation: "C1"},
		Status:      domain.StatusDistrictMatched,
		Fingerprint: "fp",
	})
	require.NoError(t, err)

	got, err := repo.Get("c")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDistrictMatched, got.Status)
	assert.Equal(t, "C1", got.ElectionLocation)
}
