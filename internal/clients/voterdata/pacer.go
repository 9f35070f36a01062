package voterdata

import (
	"context"
	"math/rand"
	"net/http"
	"time"
)

// Pacer decides how long to wait before the next outbound request.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RandomDelay waits a uniformly random duration in [Min, Max].
type RandomDelay struct {
	Min time.Duration
	Max time.Duration
}

// NewRandomDelay creates a pacer with the given window.
func NewRandomDelay(min, max time.Duration) *RandomDelay {
	if max < min {
		max = min
	}
	return &RandomDelay{Min: min, Max: max}
}

// Next returns the delay for the next request.
func (p *RandomDelay) Next() time.Duration {
	span := p.Max - p.Min
	if span <= 0 {
		return p.Min
	}
	return p.Min + time.Duration(rand.Int63n(int64(span)+1))
}

// Wait blocks for the next delay or until ctx is done.
func (p *RandomDelay) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.Next())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoDelay never waits. Used in tests and one-shot tooling.
type NoDelay struct{}

// Wait returns immediately unless ctx is already done.
func (NoDelay) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Doer sends HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RateLimitedClient applies a Pacer before every request it forwards.
// Cache hits never reach it, so only real upstream calls are delayed.
type RateLimitedClient struct {
	next  Doer
	pacer Pacer
}

// NewRateLimitedClient wraps next with pacer.
func NewRateLimitedClient(next Doer, pacer Pacer) *RateLimitedClient {
	if pacer == nil {
		pacer = NoDelay{}
	}
	return &RateLimitedClient{next: next, pacer: pacer}
}

// Do waits for the pacer, then forwards the request.
func (c *RateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.pacer.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.next.Do(req)
}
