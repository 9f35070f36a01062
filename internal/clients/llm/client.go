package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/rs/zerolog"
)

// Completer returns the model's answer for a system prompt and a user prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds provider connection settings.
type Config struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Client sends single-turn completions to the configured provider.
type Client struct {
	provider   Provider
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a completion client.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	provider, err := ProviderByName(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		provider:   provider,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With().Str("client", "llm").Str("provider", provider.Name()).Logger(),
	}, nil
}

// Complete runs a deterministic (temperature 0) completion.
// Rate limits and 5xx responses are transient; other 4xx responses are fatal.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := c.provider.BuildRequestBody(c.model, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, 0, 512)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.provider.BuildURL(c.baseURL), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.provider.SetHeaders(req, c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewUpstreamError("llm", "complete", 0, NewTransientError(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewUpstreamError("llm", "complete", resp.StatusCode, NewTransientError(err))
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("unexpected status: %s", truncate(string(respBody), 200))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", domain.NewUpstreamError("llm", "complete", resp.StatusCode, NewTransientError(statusErr))
		}
		return "", domain.NewUpstreamError("llm", "complete", resp.StatusCode, NewFatalError(statusErr))
	}

	parsed, err := c.provider.ParseResponse(respBody)
	if err != nil {
		return "", domain.NewUpstreamError("llm", "complete", resp.StatusCode, NewFatalError(err))
	}

	c.log.Debug().
		Str("model", parsed.Model).
		Dur("duration", time.Since(start)).
		Str("finish_reason", parsed.FinishReason).
		Msg("Completion received")

	return parsed.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
