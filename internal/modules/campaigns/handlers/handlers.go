// Package handlers provides HTTP handlers for the campaign read model.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Repository is the campaign store surface the handlers use.
type Repository interface {
	Get(id string) (*campaigns.Campaign, error)
	Upsert(c campaigns.Campaign) error
	Delete(id string) error
}

// Handler handles campaign HTTP requests
type Handler struct {
	repo Repository
	log  zerolog.Logger
}

// NewHandler creates a new campaign handler
func NewHandler(repo Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "campaigns").Logger(),
	}
}

// HandleGetCampaign handles GET /api/campaigns/{campaignId}
func (h *Handler) HandleGetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignId")

	c, err := h.repo.Get(campaignID)
	if err != nil {
		h.log.Error().Err(err).Str("campaign_id", campaignID).Msg("Failed to get campaign")
		http.Error(w, "Failed to get campaign", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, c)
}

// HandlePutCampaign handles PUT /api/campaigns/{campaignId}
func (h *Handler) HandlePutCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignId")

	var c campaigns.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if c.ID != "" && c.ID != campaignID {
		http.Error(w, "campaign ID in body does not match path", http.StatusBadRequest)
		return
	}
	c.ID = campaignID
	if strings.TrimSpace(c.OfficeName) == "" {
		http.Error(w, "officeName is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Upsert(c); err != nil {
		h.log.Error().Err(err).Str("campaign_id", campaignID).Msg("Failed to save campaign")
		http.Error(w, "Failed to save campaign", http.StatusInternalServerError)
		return
	}

	saved, err := h.repo.Get(campaignID)
	if err != nil || saved == nil {
		h.log.Error().Err(err).Str("campaign_id", campaignID).Msg("Failed to reload campaign")
		http.Error(w, "Failed to reload campaign", http.StatusInternalServerError)
		return
	}

	h.log.Info().Str("campaign_id", campaignID).Msg("Campaign saved")
	h.writeJSON(w, http.StatusOK, saved)
}

// HandleDeleteCampaign handles DELETE /api/campaigns/{campaignId}
func (h *Handler) HandleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignId")

	if err := h.repo.Delete(campaignID); err != nil {
		h.log.Error().Err(err).Str("campaign_id", campaignID).Msg("Failed to delete campaign")
		http.Error(w, "Failed to delete campaign", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
