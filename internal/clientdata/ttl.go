package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
//
// The snapshot TTLs here are defaults; each cache instance documents and may
// override its own TTL (fast-moving displays use minutes, the calculator
// uses hours).
const (
	// TTLRateSnapshot - API-sourced rate tables. Forex rates move slowly
	// enough for position sizing that half-day staleness is acceptable.
	TTLRateSnapshot = 12 * time.Hour

	// TTLFallbackSnapshot - fallback-sourced tables expire sooner so the
	// next request retries the live provider.
	TTLFallbackSnapshot = time.Hour

	// RateHistoryRetention - how long per-currency rate points are kept
	// for volatility estimation before being pruned.
	RateHistoryRetention = 90 * 24 * time.Hour
)
