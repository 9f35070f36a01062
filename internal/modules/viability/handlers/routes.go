package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers viability routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/campaigns/{campaignId}/viability", h.HandleGetViability)
}
