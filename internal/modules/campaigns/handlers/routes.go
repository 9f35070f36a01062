package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers campaign routes. They are flat so other modules
// can add routes below /campaigns/{campaignId}.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/campaigns/{campaignId}", h.HandleGetCampaign)
	r.Put("/campaigns/{campaignId}", h.HandlePutCampaign)
	r.Delete("/campaigns/{campaignId}", h.HandleDeleteCampaign)
}
