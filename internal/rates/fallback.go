// Package rates provides the exchange-rate layer: cached rate tables with
// API and fallback origins, cross-rate derivation, and per-pair market stats.
package rates

import (
	"fmt"

	"github.com/aristath/fxcalc/internal/domain"
)

// fallbackRates is the hardcoded, intentionally-stale rate table against USD
// used whenever the live provider is unavailable.
var fallbackRates = domain.RateTable{
	domain.USD: 1.00,
	domain.EUR: 0.92,
	domain.GBP: 0.79,
	domain.JPY: 149.50,
	domain.CHF: 0.89,
	domain.CAD: 1.36,
	domain.AUD: 1.54,
	domain.NZD: 1.67,
}

// FallbackTable returns a copy of the hardcoded rate table.
// The table always covers the full supported set.
func FallbackTable() domain.RateTable {
	return fallbackRates.Clone()
}

// FallbackRate returns the hardcoded rate for a supported currency.
// A missing entry is a programming error, not a runtime failure: the table
// is compile-time constant and covered by TestFallbackTable_Complete.
func FallbackRate(currency domain.Currency) (float64, error) {
	rate, ok := fallbackRates[currency]
	if !ok {
		return 0, fmt.Errorf("fallback table has no entry for %s: supported set and table are out of sync", currency)
	}
	return rate, nil
}
