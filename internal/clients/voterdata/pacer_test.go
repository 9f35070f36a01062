package voterdata

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return nil
}

type stubDoer struct {
	calls int
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func TestRandomDelay_NextWithinWindow(t *testing.T) {
	p := NewRandomDelay(5*time.Second, 7*time.Second)
	for i := 0; i < 200; i++ {
		d := p.Next()
		assert.GreaterOrEqual(t, d, 5*time.Second)
		assert.LessOrEqual(t, d, 7*time.Second)
	}
}

func TestRandomDelay_InvertedWindow(t *testing.T) {
	p := NewRandomDelay(3*time.Second, time.Second)
	assert.Equal(t, 3*time.Second, p.Next())
}

func TestRandomDelay_WaitHonorsContext(t *testing.T) {
	p := NewRandomDelay(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoDelay(t *testing.T) {
	assert.NoError(t, NoDelay{}.Wait(context.Background()))
}

func TestRateLimitedClient_PacesEveryRequest(t *testing.T) {
	pacer := &countingPacer{}
	next := &stubDoer{}
	client := NewRateLimitedClient(next, pacer)

	for i := 0; i < 3; i++ {
		req, err := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, 3, pacer.waits)
	assert.Equal(t, 3, next.calls)
}

func TestRateLimitedClient_CancelledContextSkipsRequest(t *testing.T) {
	next := &stubDoer{}
	client := NewRateLimitedClient(next, NoDelay{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.invalid", nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	assert.Error(t, err)
	assert.Equal(t, 0, next.calls)
}
