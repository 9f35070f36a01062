package scheduler

import (
	"testing"

	testingpkg "github.com/civicgrid/victory/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCheckWALCheckpointsJob_Name(t *testing.T) {
	job := &CheckWALCheckpointsJob{
		log: zerolog.Nop(),
	}
	assert.Equal(t, "check_wal_checkpoints", job.Name())
}

func TestCheckWALCheckpointsJob_Run(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "p2v")
	defer cleanup()

	job := NewCheckWALCheckpointsJob(db, nil)
	job.SetLogger(zerolog.New(nil).Level(zerolog.Disabled))

	assert.NoError(t, job.Run())
}
