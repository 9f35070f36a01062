package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/modules/viability"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScorer struct {
	score viability.Score
	err   error
	id    string
}

func (s *stubScorer) Score(_ context.Context, id string) (viability.Score, error) {
	s.id = id
	return s.score, s.err
}

type outcomes []string

func (o *outcomes) ObserveViability(outcome string) {
	*o = append(*o, outcome)
}

func serve(t *testing.T, scorer *stubScorer, obs Observer) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewHandler(scorer, obs, zerolog.New(nil).Level(zerolog.Disabled))
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	req := httptest.NewRequest("GET", "/campaigns/camp-1/viability", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleGetViability(t *testing.T) {
	scorer := &stubScorer{score: viability.Score{
		Level:      domain.LevelCity,
		Candidates: 3,
		Seats:      1,
		OfficeType: "Mayor",
		Score:      2,
		ProbOfWin:  0.31,
	}}
	var obs outcomes

	w := serve(t, scorer, &obs)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "camp-1", scorer.id)
	assert.Equal(t, outcomes{"scored"}, obs)

	var response struct {
		Data     viability.Score        `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 2, response.Data.Score)
	assert.Equal(t, "Mayor", response.Data.OfficeType)
	assert.Contains(t, response.Metadata, "timestamp")
}

func TestHandleGetViability_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		outcome string
	}{
		{"precondition", &domain.PreconditionError{Operation: "viability score", Missing: []string{"raceId"}}, http.StatusUnprocessableEntity, "precondition"},
		{"not found", fmt.Errorf("campaign camp-1: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{"upstream", domain.NewUpstreamError("elections", "race", 503, errors.New("down")), http.StatusBadGateway, "upstream_error"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var obs outcomes
			w := serve(t, &stubScorer{err: tt.err}, &obs)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, outcomes{tt.outcome}, obs)
		})
	}
}

func TestHandleGetViability_NilObserver(t *testing.T) {
	w := serve(t, &stubScorer{}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
