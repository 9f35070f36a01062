package clientdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJob_Name(t *testing.T) {
	job := NewCleanupJob(nil, zerolog.Nop())
	assert.Equal(t, "client_data_cleanup", job.Name())
}

func TestCleanupJob_Run(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Store(TableColumns, "fresh", []string{"a"}, time.Hour))
	require.NoError(t, repo.Store(TableColumns, "stale", []string{"b"}, -time.Hour))

	job := NewCleanupJob(repo, zerolog.Nop())
	require.NoError(t, job.Run())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM voterdata_columns").Scan(&count))
	assert.Equal(t, 1, count)
}
