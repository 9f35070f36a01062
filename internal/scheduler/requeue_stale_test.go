package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/civicgrid/victory/internal/modules/pathtovictory"
	testingpkg "github.com/civicgrid/victory/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	ids []string
	err error
}

func (e *recordingEnqueuer) Enqueue(_ context.Context, q domain.RaceQuery, preset *domain.DistrictMatch) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.ids = append(e.ids, q.CampaignID)
	return "job-" + q.CampaignID, nil
}

func TestRequeueStaleJob_Name(t *testing.T) {
	job := NewRequeueStaleJob(nil, nil, nil, time.Hour)
	assert.Equal(t, "requeue_stale_waiting", job.Name())
}

func TestRequeueStaleJob_Run(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "p2v")
	defer cleanup()

	log := zerolog.New(nil).Level(zerolog.Disabled)
	campaignRepo := campaigns.NewRepository(db.Conn(), log)
	records := pathtovictory.NewRepository(db.Conn(), log)

	old := time.Now().Add(-48 * time.Hour).Unix()
	seed := []pathtovictory.Record{
		{CampaignID: "stale", Status: domain.StatusWaiting, Attempts: 1},
		{CampaignID: "exhausted", Status: domain.StatusWaiting, Attempts: MaxRequeueAttempts},
		{CampaignID: "done", Status: domain.StatusComplete, Attempts: 1},
	}
	for _, rec := range seed {
		require.NoError(t, campaignRepo.Upsert(campaigns.Campaign{ID: rec.CampaignID, OfficeName: "Mayor", ElectionState: "GA"}))
		rec.CreatedAt, rec.UpdatedAt = old, old
		require.NoError(t, records.Save(rec, nil))
	}

	enq := &recordingEnqueuer{}
	job := NewRequeueStaleJob(records, campaignRepo, enq, 24*time.Hour)
	job.SetLogger(log)

	require.NoError(t, job.Run())
	assert.Equal(t, []string{"stale"}, enq.ids)
}

type staticStale []string

func (s staticStale) ListStaleWaiting(time.Time, int) ([]string, error) {
	return s, nil
}

type staticCampaigns []campaigns.Campaign

func (s staticCampaigns) ListByIDs([]string) ([]campaigns.Campaign, error) {
	return s, nil
}

func TestRequeueStaleJob_AllEnqueuesFail(t *testing.T) {
	enq := &recordingEnqueuer{err: errors.New("queue down")}
	job := NewRequeueStaleJob(staticStale{"a"}, staticCampaigns{{ID: "a"}}, enq, time.Hour)

	assert.Error(t, job.Run())
}

func TestRequeueStaleJob_NothingStale(t *testing.T) {
	enq := &recordingEnqueuer{}
	job := NewRequeueStaleJob(staticStale{}, staticCampaigns{{ID: "a"}}, enq, time.Hour)

	require.NoError(t, job.Run())
	assert.Empty(t, enq.ids)
}
