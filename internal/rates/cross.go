package rates

import (
	"fmt"

	"github.com/aristath/fxcalc/internal/domain"
)

// CrossRate computes the exchange rate between any two supported currencies
// from a table keyed against the base currency (USD):
//   - from == to: 1
//   - from is the base: direct lookup
//   - to is the base: inverse lookup
//   - otherwise: derived via the common base
//
// A currency missing from the table violates the RateTable invariant and is
// a fatal input error - never silently defaulted to 1.
func CrossRate(table domain.RateTable, from, to domain.Currency) (float64, error) {
	if from == to {
		return 1, nil
	}

	if from == domain.BaseCurrency {
		rate, ok := table[to]
		if !ok {
			return 0, fmt.Errorf("rate table missing entry for %s", to)
		}
		return rate, nil
	}

	fromRate, ok := table[from]
	if !ok {
		return 0, fmt.Errorf("rate table missing entry for %s", from)
	}

	if to == domain.BaseCurrency {
		return 1 / fromRate, nil
	}

	toRate, ok := table[to]
	if !ok {
		return 0, fmt.Errorf("rate table missing entry for %s", to)
	}

	return toRate / fromRate, nil
}
