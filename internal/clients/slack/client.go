// Package slack delivers operator notifications to Slack incoming webhooks,
// routed to a success channel or an issues channel.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Channel selects the destination webhook.
type Channel string

const (
	ChannelSuccess Channel = "success"
	ChannelIssues  Channel = "issues"
)

// Field is a labelled value rendered in the message attachment.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Message is a structured notification.
type Message struct {
	Title  string
	Text   string
	Fields []Field
}

type webhookPayload struct {
	Text        string       `json:"text"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type attachment struct {
	Color  string  `json:"color"`
	Text   string  `json:"text,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// Client posts messages to the configured webhooks.
type Client struct {
	webhooks   map[Channel]string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a webhook client. Empty URLs disable that channel.
func NewClient(successURL, issuesURL string, log zerolog.Logger) *Client {
	return &Client{
		webhooks: map[Channel]string{
			ChannelSuccess: successURL,
			ChannelIssues:  issuesURL,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("client", "slack").Logger(),
	}
}

// Send posts msg to the channel's webhook.
// A channel without a webhook logs the message instead.
func (c *Client) Send(ctx context.Context, channel Channel, msg Message) error {
	webhook := c.webhooks[channel]
	if webhook == "" {
		c.log.Info().Str("channel", string(channel)).Str("title", msg.Title).Msg("Slack webhook not configured, notification logged only")
		return nil
	}

	color := "good"
	if channel == ChannelIssues {
		color = "warning"
	}

	data, err := json.Marshal(webhookPayload{
		Text: msg.Title,
		Attachments: []attachment{{
			Color:  color,
			Text:   msg.Text,
			Fields: msg.Fields,
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
