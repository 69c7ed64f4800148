// Package handlers provides HTTP handlers for analytics events.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fxcalc/internal/modules/analytics"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// VisitRequest represents a page visit event
type VisitRequest struct {
	Path string `json:"path"`
}

// ErrorRequest represents a client-reported error event
type ErrorRequest struct {
	Endpoint string `json:"endpoint"`
	Message  string `json:"message"`
}

// HandleRecordVisit handles POST /api/analytics/visit
func (h *Handler) HandleRecordVisit(w http.ResponseWriter, r *http.Request) {
	var req VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	h.service.RecordVisit(req.Path)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// HandleRecordError handles POST /api/analytics/error
func (h *Handler) HandleRecordError(w http.ResponseWriter, r *http.Request) {
	var req ErrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		http.Error(w, "endpoint is required", http.StatusBadRequest)
		return
	}

	h.service.RecordError(req.Endpoint, req.Message)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// HandleGetStats handles GET /api/analytics/stats
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load analytics stats")
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": stats,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Post("/visit", h.HandleRecordVisit)
		r.Post("/error", h.HandleRecordError)
		r.Get("/stats", h.HandleGetStats)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
