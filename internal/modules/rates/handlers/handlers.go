// Package handlers provides the HTTP surface of the rate cache: the current
// table, per-pair market stats and the guarded manual refresh hook.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fxcalc/internal/domain"
	"github.com/aristath/fxcalc/internal/rates"
)

// Handler handles rates HTTP requests
type Handler struct {
	rateService *rates.Service
	cronSecret  string
	now         func() time.Time
	log         zerolog.Logger
}

// NewHandler creates a new rates handler. An empty cronSecret leaves the
// refresh endpoint open; set it in any deployment reachable from outside.
func NewHandler(rateService *rates.Service, cronSecret string, log zerolog.Logger) *Handler {
	return &Handler{
		rateService: rateService,
		cronSecret:  cronSecret,
		now:         time.Now,
		log:         log.With().Str("handler", "rates").Logger(),
	}
}

// HandleGetRates handles GET /api/rates
func (h *Handler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	snap := h.rateService.GetSnapshot(r.Context())

	// Clients may cache the table for the snapshot's remaining lifetime.
	remaining := int(snap.ExpiresAt.Sub(h.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", remaining))

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"rates":      snap.Rates,
			"timestamp":  snap.FetchedAt.Format(time.RFC3339),
			"expires_at": snap.ExpiresAt.Format(time.RFC3339),
			"source":     snap.Origin,
		},
		"metadata": map[string]interface{}{
			"timestamp": h.now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetPairRate handles GET /api/rates/pair/{from}/{to}
func (h *Handler) HandleGetPairRate(w http.ResponseWriter, r *http.Request) {
	pair, err := domain.NewPair(chi.URLParam(r, "from"), chi.URLParam(r, "to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.rateService.ResolveRate(r.Context(), pair)
	if err != nil {
		h.log.Error().Err(err).Str("pair", pair.String()).Msg("Failed to resolve pair rate")
		http.Error(w, "Failed to resolve rate", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": h.now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleRefresh handles POST /api/rates/refresh. Called by the scheduled
// refresh hook or an operator; requires the bearer secret when configured.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret != "" {
		if r.Header.Get("Authorization") != "Bearer "+h.cronSecret {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	snap := h.rateService.Refresh(r.Context())
	h.log.Info().Str("origin", string(snap.Origin)).Msg("Manual rate refresh completed")

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"source":     snap.Origin,
			"expires_at": snap.ExpiresAt.Format(time.RFC3339),
		},
		"metadata": map[string]interface{}{
			"timestamp": h.now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers all rates routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/rates", func(r chi.Router) {
		r.Get("/", h.HandleGetRates)
		r.Get("/pair/{from}/{to}", h.HandleGetPairRate)
		r.Post("/refresh", h.HandleRefresh)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
