package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// ErrPoolStopped is returned by Submit after Stop.
var ErrPoolStopped = errors.New("worker pool stopped")

// WorkerPool runs jobs with bounded concurrency. Submit blocks while all
// workers are busy, which pushes back on the consumer.
type WorkerPool struct {
	sem     *semaphore.Weighted
	process ProcessFunc
	log     zerolog.Logger

	mu      sync.Mutex
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorkerPool creates a pool of concurrency workers.
func NewWorkerPool(concurrency int, process ProcessFunc, log zerolog.Logger) *WorkerPool {
	if concurrency < 1 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		sem:     semaphore.NewWeighted(int64(concurrency)),
		process: process,
		log:     log.With().Str("component", "worker_pool").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit waits for a free worker and starts job on it.
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrPoolStopped
	}
	p.wg.Add(1)
	p.mu.Unlock()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.wg.Done()
		return err
	}

	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		p.run(job)
	}()
	return nil
}

func (p *WorkerPool) run(job Job) {
	log := p.log.With().Str("job_id", job.ID).Str("job_type", string(job.Type)).Str("campaign_id", job.Query.CampaignID).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Job panicked")
		}
	}()

	log.Debug().Msg("Job started")
	if err := p.process(p.ctx, job); err != nil {
		log.Error().Err(err).Msg("Job failed")
		return
	}
	log.Debug().Msg("Job finished")
}

// Stop rejects new jobs and waits for running ones. Running jobs see their
// context cancelled only if ctx expires first.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}
