package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all calculator routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calculator", func(r chi.Router) {
		r.Post("/position-size", h.HandlePositionSize)
	})
}
