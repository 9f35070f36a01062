package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Anthropic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sys", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"model":"m","stop_reason":"end_turn","content":[{"type":"text","text":"{\"match\": "},{"type":"text","text":"\"City_Ward\"}"}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Provider: "anthropic", BaseURL: srv.URL, Model: "m", APIKey: "key"}, zerolog.Nop())
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), "sys", "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"match": "City_Ward"}`, out)
}

func TestClient_OpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		require.NotNil(t, req.ResponseFormat)

		_, _ = w.Write([]byte(`{"model":"gpt","choices":[{"message":{"role":"assistant","content":"{\"match\":\"\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Provider: "openai", BaseURL: srv.URL + "/v1", Model: "gpt", APIKey: "key"}, zerolog.Nop())
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), "sys", "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"match":""}`, out)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusServiceUnavailable, true},
		{"unauthorized", http.StatusUnauthorized, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client, err := NewClient(Config{BaseURL: srv.URL}, zerolog.Nop())
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), "sys", "user")
			require.Error(t, err)
			assert.True(t, domain.IsUpstream(err))
			assert.Equal(t, tt.transient, IsTransient(err))
			assert.Equal(t, !tt.transient, IsFatal(err))
		})
	}
}

func TestProviderByName(t *testing.T) {
	p, err := ProviderByName("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	p, err = ProviderByName("OpenAI")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = ProviderByName("ollama")
	assert.Error(t, err)
}
