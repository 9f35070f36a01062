// Package llm provides the AI completion capability used for fuzzy label
// matching, with Anthropic and OpenAI-compatible provider adapters.
package llm

import (
	"fmt"
	"net/http"
	"strings"
)

// Message is one turn of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is the normalized provider response.
type Response struct {
	Content      string
	Model        string
	FinishReason string
}

// Provider adapts the client to one vendor's wire format.
type Provider interface {
	Name() string
	BuildURL(baseURL string) string
	SetHeaders(req *http.Request, apiKey string)
	BuildRequestBody(model string, messages []Message, temperature float64, maxTokens int) ([]byte, error)
	ParseResponse(body []byte) (*Response, error)
}

// ProviderByName returns the adapter for a configured provider name.
func ProviderByName(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "anthropic":
		return &AnthropicProvider{}, nil
	case "openai":
		return &OpenAIProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
}
