package rates

import (
	"context"
	"math"
	"time"

	"github.com/aristath/fxcalc/internal/clientdata"
	"github.com/aristath/fxcalc/internal/domain"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// Heuristic multipliers for the derived per-pair stats.
const (
	spreadFraction     = 0.0002 // spread ~ 0.02% of rate
	defaultVolatility  = 0.001  // 0.1% daily volatility when no history exists
	dailyRangeFraction = 0.002  // daily range +-0.2% around the rate

	// minHistoryPoints is the minimum number of daily rate points before
	// observed volatility replaces the heuristic.
	minHistoryPoints = 5
	historyWindow    = 30
)

// Fetcher fetches a full rate table for a base currency.
// Implemented by the exchangerate client; faked in tests.
type Fetcher interface {
	FetchRates(ctx context.Context, base domain.Currency) (domain.RateTable, error)
}

// FallbackRecorder is notified whenever a calculation had to use fallback
// rates. Implemented by the analytics service; optional.
type FallbackRecorder interface {
	RecordFallback()
}

// Options configure a rate Service. TTLs are per cache instance: the
// calculator service uses the long default, fast-moving displays may use
// minutes.
type Options struct {
	APITTL      time.Duration // Lifetime of API-sourced snapshots (default 12h)
	FallbackTTL time.Duration // Lifetime of fallback snapshots (default 1h)
	Now         func() time.Time
}

func (o *Options) withDefaults() {
	if o.APITTL <= 0 {
		o.APITTL = clientdata.TTLRateSnapshot
	}
	if o.FallbackTTL <= 0 {
		o.FallbackTTL = clientdata.TTLFallbackSnapshot
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Service serves rate tables from the snapshot cache, refreshing from the
// provider on expiry and absorbing provider failures into fallback data.
// GetRates never fails: calculation callers always receive a usable table.
type Service struct {
	fetcher  Fetcher // nil = permanent fallback-only mode
	store    SnapshotStore
	history  *clientdata.Repository // optional, for observed volatility
	recorder FallbackRecorder       // optional
	opts     Options
	log      zerolog.Logger
}

// NewService creates a rate service. A nil fetcher puts the service in
// permanent fallback-only mode, which is logged once here rather than on
// every request.
func NewService(fetcher Fetcher, store SnapshotStore, history *clientdata.Repository, recorder FallbackRecorder, opts Options, log zerolog.Logger) *Service {
	opts.withDefaults()

	s := &Service{
		fetcher:  fetcher,
		store:    store,
		history:  history,
		recorder: recorder,
		opts:     opts,
		log:      log.With().Str("service", "rates").Logger(),
	}

	if fetcher == nil {
		s.log.Warn().Msg("No exchange rate API key configured, running in fallback-only mode")
	}

	return s
}

// GetSnapshot returns the current snapshot, fetching or falling back as
// needed. It never returns an error: provider failures are absorbed into a
// fallback snapshot with a shorter TTL so the next miss retries sooner.
func (s *Service) GetSnapshot(ctx context.Context) *domain.RateSnapshot {
	now := s.opts.Now()

	if snap, ok := s.store.Get(); ok && !snap.Expired(now) {
		return snap
	}

	return s.refresh(ctx)
}

// GetRates returns the current rate table. Never fails.
func (s *Service) GetRates(ctx context.Context) domain.RateTable {
	return s.GetSnapshot(ctx).Rates
}

// Refresh forces a provider fetch regardless of snapshot freshness.
// Used by the background refresh job and the manual refresh endpoint.
func (s *Service) Refresh(ctx context.Context) *domain.RateSnapshot {
	return s.refresh(ctx)
}

func (s *Service) refresh(ctx context.Context) *domain.RateSnapshot {
	now := s.opts.Now()

	if s.fetcher != nil {
		table, err := s.fetcher.FetchRates(ctx, domain.BaseCurrency)
		if err == nil {
			snap := &domain.RateSnapshot{
				Rates:     table,
				FetchedAt: now,
				ExpiresAt: now.Add(s.opts.APITTL),
				Origin:    domain.OriginAPI,
			}
			s.store.Put(snap)
			s.recordHistory(table)

			s.log.Info().
				Time("expires_at", snap.ExpiresAt).
				Msg("Refreshed rate snapshot from API")
			return snap
		}

		s.log.Warn().Err(err).Msg("Rate fetch failed, using fallback rates")
	}

	if s.recorder != nil {
		s.recorder.RecordFallback()
	}

	snap := &domain.RateSnapshot{
		Rates:     FallbackTable(),
		FetchedAt: now,
		ExpiresAt: now.Add(s.opts.FallbackTTL),
		Origin:    domain.OriginFallback,
	}
	s.store.Put(snap)
	return snap
}

func (s *Service) recordHistory(table domain.RateTable) {
	if s.history == nil {
		return
	}

	rates := make(map[string]float64, len(table))
	for currency, rate := range table {
		rates[string(currency)] = rate
	}
	if err := s.history.RecordRates(rates); err != nil {
		s.log.Warn().Err(err).Msg("Failed to record rate history")
	}
}

// ResolveRate derives the per-request view of a pair's rate from the
// current snapshot: cross rate, heuristic spread and daily range, and
// volatility (observed when enough history exists, heuristic otherwise).
func (s *Service) ResolveRate(ctx context.Context, pair domain.CurrencyPair) (domain.ExchangeRateResult, error) {
	snap := s.GetSnapshot(ctx)

	rate, err := CrossRate(snap.Rates, pair.Base, pair.Quote)
	if err != nil {
		return domain.ExchangeRateResult{}, err
	}

	return domain.ExchangeRateResult{
		Pair:       pair,
		Rate:       rate,
		Spread:     rate * spreadFraction,
		Volatility: s.volatility(pair.Quote),
		DailyRange: domain.DailyRange{
			High: rate * (1 + dailyRangeFraction),
			Low:  rate * (1 - dailyRangeFraction),
		},
		Source: snap.Origin,
	}, nil
}

// volatility estimates the quote currency's daily volatility as the sample
// standard deviation of log returns over the recent history window.
// Returns the 0.1% heuristic when history is missing or too short.
func (s *Service) volatility(currency domain.Currency) float64 {
	if s.history == nil {
		return defaultVolatility
	}

	points, err := s.history.RecentRates(string(currency), historyWindow)
	if err != nil {
		s.log.Warn().Err(err).Str("currency", string(currency)).Msg("Failed to load rate history")
		return defaultVolatility
	}
	if len(points) < minHistoryPoints {
		return defaultVolatility
	}

	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1].Rate, points[i].Rate
		if prev <= 0 || curr <= 0 {
			continue
		}
		returns = append(returns, math.Log(curr/prev))
	}
	if len(returns) < minHistoryPoints-1 {
		return defaultVolatility
	}

	vol := stat.StdDev(returns, nil)
	if vol <= 0 || math.IsNaN(vol) {
		return defaultVolatility
	}
	return vol
}
