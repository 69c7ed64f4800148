package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fxcalc/internal/domain"
	"github.com/aristath/fxcalc/internal/rates"
)

type healthyFetcher struct{}

func (healthyFetcher) FetchRates(_ context.Context, _ domain.Currency) (domain.RateTable, error) {
	return rates.FallbackTable(), nil
}

func newTestSystemHandlers() *SystemHandlers {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	svc := rates.NewService(healthyFetcher{}, rates.NewMemoryStore(), nil, nil, rates.Options{}, logger)
	return NewSystemHandlers(logger, nil, svc)
}

func TestHandleHealth(t *testing.T) {
	h := newTestSystemHandlers()

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response.Status)
	assert.GreaterOrEqual(t, response.UptimeSeconds, 0.0)
}

func TestHandleSystemStatus(t *testing.T) {
	h := newTestSystemHandlers()

	req := httptest.NewRequest("GET", "/api/system/status", nil)
	w := httptest.NewRecorder()
	h.HandleSystemStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data SystemStatusResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "api", response.Data.RateSource)
	assert.True(t, response.Data.RatesFresh)
	assert.GreaterOrEqual(t, response.Data.MemoryPercent, 0.0)
}
