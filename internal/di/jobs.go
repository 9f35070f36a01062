package di

import (
	"fmt"

	"github.com/civicgrid/victory/internal/clientdata"
	"github.com/civicgrid/victory/internal/config"
	"github.com/civicgrid/victory/internal/scheduler"
	"github.com/rs/zerolog"
)

// walCheckSchedule runs the WAL check every six hours.
const walCheckSchedule = "0 */6 * * *"

// JobInstances holds references to all registered jobs.
type JobInstances struct {
	Scheduler *scheduler.Scheduler

	ClientDataCleanup   *clientdata.CleanupJob
	RequeueStale        *scheduler.RequeueStaleJob
	CheckWALCheckpoints *scheduler.CheckWALCheckpointsJob
}

// All returns every job for manual triggering.
func (j *JobInstances) All() []scheduler.Job {
	return []scheduler.Job{j.ClientDataCleanup, j.RequeueStale, j.CheckWALCheckpoints}
}

// RegisterJobs creates the maintenance jobs and schedules them. The
// scheduler is returned stopped.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{Scheduler: scheduler.New(log)}

	jobs.ClientDataCleanup = clientdata.NewCleanupJob(container.ClientDataRepo, log)

	jobs.RequeueStale = scheduler.NewRequeueStaleJob(container.P2VRepo, container.CampaignRepo, container.Enqueuer, cfg.Scheduler.StaleWaitingAfter)
	jobs.RequeueStale.SetLogger(log.With().Str("job", "requeue_stale_waiting").Logger())

	jobs.CheckWALCheckpoints = scheduler.NewCheckWALCheckpointsJob(container.P2VDB, container.ClientDataDB)
	jobs.CheckWALCheckpoints.SetLogger(log.With().Str("job", "check_wal_checkpoints").Logger())

	schedules := []struct {
		spec string
		job  scheduler.Job
	}{
		{cfg.Scheduler.CacheCleanupCron, jobs.ClientDataCleanup},
		{cfg.Scheduler.RequeueCron, jobs.RequeueStale},
		{walCheckSchedule, jobs.CheckWALCheckpoints},
	}
	for _, s := range schedules {
		if err := jobs.Scheduler.AddJob(s.spec, s.job); err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", s.job.Name(), err)
		}
	}

	log.Info().Int("jobs", len(schedules)).Msg("Jobs registered")
	return jobs, nil
}
