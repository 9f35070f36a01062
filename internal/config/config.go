// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string `env:"DATA_DIR" envDefault:"./data"` // Base directory for all databases (always absolute after Load)
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	DevMode  bool   `env:"DEV_MODE" envDefault:"false"`

	VoterData VoterDataConfig
	AI        AIConfig
	Elections ElectionsConfig
	Slack     SlackConfig
	Queue     QueueConfig
	Scheduler SchedulerConfig
}

// VoterDataConfig configures the voter-file API client and its pacing.
type VoterDataConfig struct {
	BaseURL    string        `env:"VOTER_DATA_BASE_URL" envDefault:"https://api.l2datamapping.com/api/v2"`
	CustomerID string        `env:"VOTER_DATA_CUSTOMER_ID"`
	APIID      string        `env:"VOTER_DATA_API_ID"`
	APIKey     string        `env:"VOTER_DATA_API_KEY"`
	MinDelay   time.Duration `env:"VOTER_DATA_MIN_DELAY" envDefault:"5s"`
	MaxDelay   time.Duration `env:"VOTER_DATA_MAX_DELAY" envDefault:"7s"`
	Timeout    time.Duration `env:"VOTER_DATA_TIMEOUT" envDefault:"60s"`
}

// AIConfig configures the completion backend used for fuzzy label matching.
type AIConfig struct {
	Provider string        `env:"AI_PROVIDER" envDefault:"anthropic"` // anthropic | openai
	BaseURL  string        `env:"AI_BASE_URL"`
	Model    string        `env:"AI_MODEL" envDefault:"claude-3-5-haiku-latest"`
	APIKey   string        `env:"AI_API_KEY"`
	Timeout  time.Duration `env:"AI_TIMEOUT" envDefault:"60s"`
}

// ElectionsConfig configures the race/candidacy data collaborator.
type ElectionsConfig struct {
	BaseURL string        `env:"ELECTIONS_API_BASE_URL" envDefault:"http://localhost:9100"`
	Token   string        `env:"ELECTIONS_API_TOKEN"`
	Timeout time.Duration `env:"ELECTIONS_API_TIMEOUT" envDefault:"20s"`
}

// SlackConfig routes notifications to one webhook per channel.
// Empty URLs disable delivery for that channel (messages are logged instead).
type SlackConfig struct {
	SuccessWebhookURL string `env:"SLACK_SUCCESS_WEBHOOK_URL"`
	IssuesWebhookURL  string `env:"SLACK_ISSUES_WEBHOOK_URL"`
}

// QueueConfig configures the trigger-message transport.
type QueueConfig struct {
	NATSURL     string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	Subject     string `env:"NATS_SUBJECT" envDefault:"campaigns.pathToVictory"`
	QueueGroup  string `env:"NATS_QUEUE_GROUP" envDefault:"p2v-workers"`
	Concurrency int    `env:"WORKER_CONCURRENCY" envDefault:"2"`
}

// SchedulerConfig configures the cron-driven maintenance jobs.
type SchedulerConfig struct {
	StaleWaitingAfter time.Duration `env:"STALE_WAITING_AFTER" envDefault:"24h"`
	RequeueCron       string        `env:"REQUEUE_CRON" envDefault:"@hourly"`
	CacheCleanupCron  string        `env:"CACHE_CLEANUP_CRON" envDefault:"30 0 * * *"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	cfg.DataDir = absDataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if c.VoterData.MinDelay < 0 || c.VoterData.MaxDelay < c.VoterData.MinDelay {
		return fmt.Errorf("invalid voter data delay window: min=%s max=%s", c.VoterData.MinDelay, c.VoterData.MaxDelay)
	}
	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", c.Queue.Concurrency)
	}
	switch c.AI.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unsupported AI_PROVIDER: %q", c.AI.Provider)
	}

	// Voter data credentials are optional: without them every pass degrades to Waiting.
	return nil
}

// HasVoterDataCredentials reports whether the voter-file API can be called.
func (c *Config) HasVoterDataCredentials() bool {
	return c.VoterData.CustomerID != "" && c.VoterData.APIID != "" && c.VoterData.APIKey != ""
}
