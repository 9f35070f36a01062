// Package handlers provides HTTP handlers for path-to-victory records.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/civicgrid/victory/internal/modules/pathtovictory"
	"github.com/civicgrid/victory/internal/queue"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Service is the orchestrator surface the handlers use.
type Service interface {
	Get(campaignID string) (*pathtovictory.Record, error)
	SetDistrict(ctx context.Context, campaignID string, match domain.DistrictMatch) (pathtovictory.Record, domain.RaceQuery, error)
}

// CampaignLookup loads a campaign by ID.
type CampaignLookup interface {
	Get(id string) (*campaigns.Campaign, error)
}

// Handler handles path-to-victory HTTP requests
type Handler struct {
	service   Service
	campaigns CampaignLookup
	enqueuer  queue.Enqueuer
	log       zerolog.Logger
}

// NewHandler creates a new path-to-victory handler
func NewHandler(service Service, campaigns CampaignLookup, enqueuer queue.Enqueuer, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		campaigns: campaigns,
		enqueuer:  enqueuer,
		log:       log.With().Str("handler", "pathtovictory").Logger(),
	}
}

// SetDistrictRequest is the body of PUT /api/p2v/{campaignId}/district
type SetDistrictRequest struct {
	ElectionType     string `json:"electionType"`
	ElectionLocation string `json:"electionLocation"`
}

// HandleGetRecord handles GET /api/p2v/{campaignId}
func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignId")

	rec, err := h.service.Get(campaignID)
	if err != nil {
		h.log.Error().Err(err).Str("campaign_id", campaignID).Msg("Failed to get p2v record")
		http.Error(w, "Failed to get path to victory", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "Path to victory not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(rec))
}

// HandleSetDistrict handles PUT /api/p2v/{campaignId}/district
func (h *Handler) HandleSetDistrict(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignId")

	var req SetDistrictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rec, _, err := h.service.SetDistrict(r.Context(), campaignID, domain.DistrictMatch{
		ElectionType:     req.ElectionType,
		ElectionLocation: req.ElectionLocation,
	})
	switch {
	case err == nil:
	case domain.IsPrecondition(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	default:
		h.log.Error().Err(err).Str("campaign_id", campaignID).Msg("Failed to set district")
		http.Error(w, "Failed to set district", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(rec))
}

// HandleRun handles POST /api/p2v/{campaignId}/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignId")

	c, err := h.campaigns.Get(campaignID)
	if err != nil {
		h.log.Error().Err(err).Str("campaign_id", campaignID).Msg("Failed to load campaign")
		http.Error(w, "Failed to load campaign", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	}

	jobID, err := h.enqueuer.Enqueue(r.Context(), c.RaceQuery(), nil)
	if err != nil {
		h.log.Error().Err(err).Str("campaign_id", campaignID).Msg("Failed to enqueue pass")
		http.Error(w, fmt.Sprintf("Failed to enqueue pass: %v", err), http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, http.StatusAccepted, envelope(map[string]interface{}{
		"jobId":      jobID,
		"campaignId": campaignID,
	}))
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
