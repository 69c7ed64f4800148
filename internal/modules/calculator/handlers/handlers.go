// Package handlers provides HTTP handlers for position-size calculations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fxcalc/internal/domain"
	"github.com/aristath/fxcalc/internal/modules/calculator"
	"github.com/aristath/fxcalc/internal/modules/suggestions"
)

// CalculationRecorder receives calculation events for analytics.
// Recording is fire-and-forget; a nil recorder disables it.
type CalculationRecorder interface {
	RecordCalculation(pair string, duration time.Duration, usedFallback bool)
}

// Handler handles calculator HTTP requests
type Handler struct {
	calcService *calculator.Service
	recorder    CalculationRecorder
	log         zerolog.Logger
}

// NewHandler creates a new calculator handler
func NewHandler(calcService *calculator.Service, recorder CalculationRecorder, log zerolog.Logger) *Handler {
	return &Handler{
		calcService: calcService,
		recorder:    recorder,
		log:         log.With().Str("handler", "calculator").Logger(),
	}
}

// PositionSizeRequest represents a position-size calculation request
type PositionSizeRequest struct {
	AccountBalance  float64 `json:"account_balance"`
	RiskPercentage  float64 `json:"risk_percentage"`
	StopLossPips    float64 `json:"stop_loss_pips"`
	TakeProfitPips  float64 `json:"take_profit_pips"`
	Leverage        float64 `json:"leverage"`
	AccountCurrency string  `json:"account_currency"`
	BaseCurrency    string  `json:"base_currency"`
	QuoteCurrency   string  `json:"quote_currency"`
	DisplayUnit     string  `json:"display_unit"`
}

// HandlePositionSize handles POST /api/calculator/position-size
func (h *Handler) HandlePositionSize(w http.ResponseWriter, r *http.Request) {
	var req PositionSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	input := calculator.Input{
		AccountBalance:  req.AccountBalance,
		RiskPercentage:  req.RiskPercentage,
		StopLossPips:    req.StopLossPips,
		TakeProfitPips:  req.TakeProfitPips,
		Leverage:        req.Leverage,
		AccountCurrency: domain.Currency(req.AccountCurrency),
		BaseCurrency:    domain.Currency(req.BaseCurrency),
		QuoteCurrency:   domain.Currency(req.QuoteCurrency),
		DisplayUnit:     calculator.DisplayUnit(req.DisplayUnit),
	}

	started := time.Now()
	result, err := h.calcService.Calculate(r.Context(), input)
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			h.writeValidationErrors(w, verrs)
			return
		}
		h.log.Error().Err(err).Msg("Calculation failed")
		http.Error(w, "Calculation failed", http.StatusInternalServerError)
		return
	}

	scenario := h.calcService.Scenario(input, result)
	advice := suggestions.Suggest(scenario)

	if h.recorder != nil {
		pair := domain.CurrencyPair{Base: input.BaseCurrency, Quote: input.QuoteCurrency}
		go h.recorder.RecordCalculation(pair.String(), time.Since(started), result.UsedFallbackRate)
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"result":      result,
			"suggestions": advice,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// writeValidationErrors returns a 400 listing every offending field.
func (h *Handler) writeValidationErrors(w http.ResponseWriter, verrs domain.ValidationErrors) {
	h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "validation failed",
		"fields": verrs,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
