// Package labelmatch picks the single best label for a free-text query:
// deterministic keyword rules first, an AI completion as the fallback.
package labelmatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/civicgrid/victory/internal/clients/llm"
	"github.com/civicgrid/victory/internal/domain"
	"github.com/rs/zerolog"
)

const systemPrompt = `You match a query against a fixed list of candidate labels from a voter file.
Reply with a single JSON object of the form {"match": "<label>"}.
The label must be copied verbatim from candidateLabels, including any delimiter characters such as "##".
If no label is a confident match, reply {"match": ""}.
Do not add any other text.`

type matchRequest struct {
	Query           string   `json:"query"`
	CandidateLabels []string `json:"candidateLabels"`
}

// Matcher implements label matching. A nil completer restricts it to the
// deterministic rules.
type Matcher struct {
	completer llm.Completer
	log       zerolog.Logger
}

// NewMatcher creates a label matcher.
func NewMatcher(completer llm.Completer, log zerolog.Logger) *Matcher {
	return &Matcher{
		completer: completer,
		log:       log.With().Str("component", "label_matcher").Logger(),
	}
}

// Match returns the best label for query.
// Returns domain.ErrNoMatch when nothing fits. AI failures are returned as errors.
func (m *Matcher) Match(ctx context.Context, query string, labels []string) (string, error) {
	if len(labels) == 0 {
		return "", domain.ErrNoMatch
	}

	q := normalize(query)
	for _, l := range labels {
		if normalize(l) == q {
			return l, nil
		}
	}

	category := InferCategory(query)
	offered := labels
	switch narrowed := FilterByCategory(category, labels); {
	case len(narrowed) == 1 && sharesDistinguishingToken(query, category, narrowed[0]):
		m.log.Debug().Str("query", query).Str("label", narrowed[0]).Msg("Matched by category rule")
		return narrowed[0], nil
	case len(narrowed) > 1:
		offered = narrowed
	}

	return m.askModel(ctx, query, offered)
}

// askModel delegates disambiguation to the completer and validates the answer.
func (m *Matcher) askModel(ctx context.Context, query string, labels []string) (string, error) {
	if m.completer == nil {
		return "", domain.ErrNoMatch
	}

	payload, err := json.Marshal(matchRequest{Query: query, CandidateLabels: labels})
	if err != nil {
		return "", fmt.Errorf("failed to marshal match request: %w", err)
	}

	content, err := m.completer.Complete(ctx, systemPrompt, string(payload))
	if err != nil {
		return "", fmt.Errorf("label match completion failed: %w", err)
	}

	answer, ok := parseAnswer(content)
	if !ok {
		m.log.Warn().Str("query", query).Str("content", content).Msg("Rejected unparseable label match response")
		return "", domain.ErrNoMatch
	}
	if answer == "" {
		m.log.Debug().Str("query", query).Int("labels", len(labels)).Msg("Model found no matching label")
		return "", domain.ErrNoMatch
	}

	for _, l := range labels {
		if l == answer {
			return l, nil
		}
	}

	m.log.Warn().Str("query", query).Str("answer", answer).Msg("Rejected label not present in offered set")
	return "", domain.ErrNoMatch
}

// parseAnswer reads the single string field of the response object.
// "match" is preferred when the model adds extra keys.
func parseAnswer(content string) (string, bool) {
	raw := llm.ExtractJSON(content)
	if raw == "" {
		return "", false
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return "", false
	}

	if v, ok := obj["match"]; ok {
		s, isString := v.(string)
		return s, isString
	}
	if len(obj) != 1 {
		return "", false
	}
	for _, v := range obj {
		s, isString := v.(string)
		return s, isString
	}
	return "", false
}
