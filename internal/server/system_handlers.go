package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/fxcalc/internal/database"
	"github.com/aristath/fxcalc/internal/rates"
)

// SystemHandlers serves health and system status endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	cacheDB     *database.DB
	rateService *rates.Service
	startTime   time.Time
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(log zerolog.Logger, cacheDB *database.DB, rateService *rates.Service) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		cacheDB:     cacheDB,
		rateService: rateService,
		startTime:   time.Now(),
	}
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Database      string  `json:"database"`
}

// SystemStatusResponse is the system status payload
type SystemStatusResponse struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	RateSource    string    `json:"rate_source"`
	RatesExpireAt time.Time `json:"rates_expire_at"`
	RatesFresh    bool      `json:"rates_fresh"`
}

// HandleHealth handles GET /api/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	status := http.StatusOK
	if h.cacheDB != nil {
		if err := h.cacheDB.Conn().PingContext(r.Context()); err != nil {
			h.log.Error().Err(err).Msg("Database ping failed")
			dbStatus = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	h.writeJSON(w, status, HealthResponse{
		Status:        overall,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Database:      dbStatus,
	})
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemStats()
	snap := h.rateService.GetSnapshot(r.Context())

	response := map[string]interface{}{
		"data": SystemStatusResponse{
			CPUPercent:    cpuPercent,
			MemoryPercent: memPercent,
			UptimeSeconds: time.Since(h.startTime).Seconds(),
			RateSource:    string(snap.Origin),
			RatesExpireAt: snap.ExpiresAt,
			RatesFresh:    !snap.Expired(time.Now()),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// systemStats samples CPU over a short window to keep the endpoint fast.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
