// Package handlers provides HTTP handlers for viability scoring.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/modules/viability"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ScoreService computes a campaign's viability.
type ScoreService interface {
	Score(ctx context.Context, campaignID string) (viability.Score, error)
}

// Observer records scoring outcomes.
type Observer interface {
	ObserveViability(outcome string)
}

// Handler handles viability HTTP requests
type Handler struct {
	scorer   ScoreService
	observer Observer
	log      zerolog.Logger
}

// NewHandler creates a new viability handler. observer may be nil.
func NewHandler(scorer ScoreService, observer Observer, log zerolog.Logger) *Handler {
	return &Handler{
		scorer:   scorer,
		observer: observer,
		log:      log.With().Str("handler", "viability").Logger(),
	}
}

// HandleGetViability handles GET /api/campaigns/{campaignId}/viability
func (h *Handler) HandleGetViability(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignId")
	if campaignID == "" {
		http.Error(w, "campaign ID is required", http.StatusBadRequest)
		return
	}

	score, err := h.scorer.Score(r.Context(), campaignID)
	if err != nil {
		status, outcome := classify(err)
		h.observe(outcome)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Str("campaign_id", campaignID).Msg("Failed to score viability")
		}
		http.Error(w, err.Error(), status)
		return
	}
	h.observe("scored")

	response := map[string]interface{}{
		"data": score,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

func classify(err error) (int, string) {
	switch {
	case domain.IsPrecondition(err):
		return http.StatusUnprocessableEntity, "precondition"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case domain.IsUpstream(err):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "error"
	}
}

func (h *Handler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveViability(outcome)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
