package campaigns

import (
	"testing"

	testingpkg "github.com/civicgrid/victory/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCampaign() Campaign {
	return Campaign{
		ID:                 "camp-1",
		CandidateFirstName: "Jane",
		CandidateLastName:  "Doe",
		OfficeName:         "City Council",
		ElectionLevel:      "city",
		ElectionState:      "ga",
		ElectionDate:       "2025-11-04",
		ElectionTerm:       4,
		PriorElectionDates: []string{"2021-11-02", "2017-11-07"},
		RaceID:             "race-1",
		PositionID:         "pos-1",
	}
}

func TestRepository_UpsertAndGet(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "p2v")
	defer cleanup()
	repo := NewRepository(db.Conn(), zerolog.Nop())

	require.NoError(t, repo.Upsert(sampleCampaign()))

	got, err := repo.Get("camp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jane Doe", got.CandidateName())
	assert.Equal(t, "GA", got.ElectionState)
	assert.Equal(t, []string{"2021-11-02", "2017-11-07"}, got.PriorElectionDates)
	assert.False(t, got.IsAdminCreated)
	assert.NotZero(t, got.CreatedAt)

	updated := sampleCampaign()
	updated.OfficeName = "City Council District 2"
	updated.IsAdminCreated = true
	require.NoError(t, repo.Upsert(updated))

	got, err = repo.Get("camp-1")
	require.NoError(t, err)
	assert.Equal(t, "City Council District 2", got.OfficeName)
	assert.True(t, got.IsAdminCreated)
}

func TestRepository_GetMissing(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "p2v")
	defer cleanup()

	got, err := NewRepository(db.Conn(), zerolog.Nop()).Get("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_DeleteRemovesP2VRecord(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "p2v")
	defer cleanup()
	repo := NewRepository(db.Conn(), zerolog.Nop())

	require.NoError(t, repo.Upsert(sampleCampaign()))
	_, err := db.Conn().Exec("INSERT INTO path_to_victory (campaign_id, created_at, updated_at) VALUES ('camp-1', 0, 0)")
	require.NoError(t, err)

	require.NoError(t, repo.Delete("camp-1"))

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM path_to_victory").Scan(&count))
	assert.Equal(t, 0, count)
	got, err := repo.Get("camp-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_ListByIDs(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "p2v")
	defer cleanup()
	repo := NewRepository(db.Conn(), zerolog.Nop())

	a := sampleCampaign()
	b := sampleCampaign()
	b.ID = "camp-2"
	require.NoError(t, repo.Upsert(a))
	require.NoError(t, repo.Upsert(b))

	got, err := repo.ListByIDs([]string{"camp-1", "camp-2", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCampaign_RaceQuery(t *testing.T) {
	q := sampleCampaign().RaceQuery()
	assert.Equal(t, "camp-1", q.CampaignID)
	assert.Equal(t, "GA", q.State())
	assert.Equal(t, "city", string(q.ElectionLevel))
	assert.Len(t, q.PriorElectionDates, 2)
}
