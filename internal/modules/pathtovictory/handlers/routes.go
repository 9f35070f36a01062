package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all path-to-victory routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/p2v/{campaignId}", func(r chi.Router) {
		r.Get("/", h.HandleGetRecord)
		r.Put("/district", h.HandleSetDistrict)
		r.Post("/run", h.HandleRun)
	})
}
