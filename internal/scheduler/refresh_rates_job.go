package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fxcalc/internal/rates"
)

// refreshTimeout bounds a single background refresh so a hung provider
// never wedges the scheduler worker.
const refreshTimeout = 30 * time.Second

// RefreshRatesJob re-fetches the rate table ahead of snapshot expiry so
// foreground calculations rarely see a cache miss. Runs fire-and-forget on
// the scheduler; failures fall back inside the rate service.
type RefreshRatesJob struct {
	rateService *rates.Service
	log         zerolog.Logger
}

// NewRefreshRatesJob creates a new rate refresh job
func NewRefreshRatesJob(rateService *rates.Service, log zerolog.Logger) *RefreshRatesJob {
	return &RefreshRatesJob{
		rateService: rateService,
		log:         log.With().Str("job", "refresh_rates").Logger(),
	}
}

// Name returns the job name
func (j *RefreshRatesJob) Name() string {
	return "refresh_rates"
}

// Run refreshes the rate snapshot. Never returns an error from provider
// failures - those are absorbed into fallback data by the rate service.
func (j *RefreshRatesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	snap := j.rateService.Refresh(ctx)
	j.log.Info().
		Str("origin", string(snap.Origin)).
		Time("expires_at", snap.ExpiresAt).
		Msg("Background rate refresh completed")
	return nil
}
