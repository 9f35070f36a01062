package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// MessageObserver records consumed-message outcomes.
type MessageObserver interface {
	ObserveMessage(outcome string)
}

// Connect dials NATS with reconnect settings suited to a long-lived worker.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// Publisher sends trigger messages to the subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
}

// NewPublisher creates a NATS publisher.
func NewPublisher(conn *nats.Conn, subject string, log zerolog.Logger) *Publisher {
	return &Publisher{
		conn:    conn,
		subject: subject,
		log:     log.With().Str("component", "queue_publisher").Logger(),
	}
}

// Enqueue implements Enqueuer.
func (p *Publisher) Enqueue(ctx context.Context, q domain.RaceQuery, preset *domain.DistrictMatch) (string, error) {
	msg, err := NewPathToVictoryMessage(q, preset)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := p.conn.Publish(p.subject, body); err != nil {
		return "", fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}
	p.log.Info().Str("job_id", msg.ID).Str("campaign_id", q.CampaignID).Msg("Trigger message published")
	return msg.ID, nil
}

// Consumer reads trigger messages from a NATS queue group and submits them
// to the worker pool.
type Consumer struct {
	conn     *nats.Conn
	subject  string
	group    string
	pool     *WorkerPool
	observer MessageObserver
	log      zerolog.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewConsumer creates a queue-group consumer.
func NewConsumer(conn *nats.Conn, subject, group string, pool *WorkerPool, log zerolog.Logger) *Consumer {
	return &Consumer{
		conn:    conn,
		subject: subject,
		group:   group,
		pool:    pool,
		log:     log.With().Str("component", "queue_consumer").Str("subject", subject).Logger(),
	}
}

// SetObserver attaches a message-outcome observer.
func (c *Consumer) SetObserver(o MessageObserver) {
	c.observer = o
}

// Start subscribes and returns once the subscription is active.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		return nil
	}
	sub, err := c.conn.QueueSubscribe(c.subject, c.group, func(m *nats.Msg) {
		c.Handle(ctx, m.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to queue subscribe: %w", err)
	}
	c.sub = sub
	c.log.Info().Str("group", c.group).Msg("Consuming trigger messages")
	return nil
}

// Stop drains the subscription.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub == nil {
		return nil
	}
	err := c.sub.Drain()
	c.sub = nil
	return err
}

// Handle decodes one message body and submits it. Unknown and invalid
// messages are dropped after logging.
func (c *Consumer) Handle(ctx context.Context, body []byte) {
	job, err := Decode(body)
	switch {
	case errors.Is(err, ErrUnknownType):
		c.log.Warn().Err(err).Msg("Dropping message of unknown type")
		c.observe("unknown_type")
		return
	case err != nil:
		c.log.Warn().Err(err).Msg("Dropping invalid trigger message")
		c.observe("invalid")
		return
	}

	if err := c.pool.Submit(ctx, job); err != nil {
		c.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to submit job")
		c.observe("rejected")
		return
	}
	c.observe("accepted")
}

func (c *Consumer) observe(outcome string) {
	if c.observer != nil {
		c.observer.ObserveMessage(outcome)
	}
}
