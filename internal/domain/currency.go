// Package domain holds the core types shared across the calculator:
// currencies, rate tables, snapshots and the error taxonomy.
// The domain layer is pure - no infrastructure dependencies.
package domain

import (
	"fmt"
	"math"
	"time"
)

// Currency is an ISO 4217 code from the fixed supported set.
type Currency string

// Supported currencies. BaseCurrency (USD) is the common base every
// rate table is expressed against.
const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CHF Currency = "CHF"
	CAD Currency = "CAD"
	AUD Currency = "AUD"
	NZD Currency = "NZD"

	BaseCurrency = USD
)

// SupportedCurrencies lists every valid Currency, in display order.
var SupportedCurrencies = []Currency{USD, EUR, GBP, JPY, CHF, CAD, AUD, NZD}

var supportedSet = func() map[Currency]bool {
	m := make(map[Currency]bool, len(SupportedCurrencies))
	for _, c := range SupportedCurrencies {
		m[c] = true
	}
	return m
}()

// IsSupported reports whether code is a member of the supported set.
// Any other string is rejected everywhere in the system.
func IsSupported(code Currency) bool {
	return supportedSet[code]
}

// ParseCurrency validates a raw string and returns the Currency.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(code)
	if !IsSupported(c) {
		return "", &ValidationError{Field: "currency", Message: fmt.Sprintf("unsupported currency: %q", code)}
	}
	return c, nil
}

// CurrencyPair is an ordered (base, quote) pair of distinct currencies.
type CurrencyPair struct {
	Base  Currency `json:"base"`
	Quote Currency `json:"quote"`
}

// NewPair validates both sides and the base != quote invariant.
func NewPair(base, quote string) (CurrencyPair, error) {
	b, err := ParseCurrency(base)
	if err != nil {
		return CurrencyPair{}, &ValidationError{Field: "base_currency", Message: err.Error()}
	}
	q, err := ParseCurrency(quote)
	if err != nil {
		return CurrencyPair{}, &ValidationError{Field: "quote_currency", Message: err.Error()}
	}
	if b == q {
		return CurrencyPair{}, &ValidationError{Field: "currency_pair", Message: "base and quote must differ"}
	}
	return CurrencyPair{Base: b, Quote: q}, nil
}

func (p CurrencyPair) String() string {
	return string(p.Base) + "/" + string(p.Quote)
}

// PipSize returns the smallest standard price increment for the pair:
// 0.01 for JPY-quoted pairs, 0.0001 otherwise.
func (p CurrencyPair) PipSize() float64 {
	if p.Quote == JPY {
		return 0.01
	}
	return 0.0001
}

// AllPairs returns the full cross product of supported currencies minus
// identity pairs.
func AllPairs() []CurrencyPair {
	pairs := make([]CurrencyPair, 0, len(SupportedCurrencies)*(len(SupportedCurrencies)-1))
	for _, base := range SupportedCurrencies {
		for _, quote := range SupportedCurrencies {
			if base == quote {
				continue
			}
			pairs = append(pairs, CurrencyPair{Base: base, Quote: quote})
		}
	}
	return pairs
}

// RateTable maps each supported currency to its rate against BaseCurrency.
// A well-formed table has exactly one strictly positive finite entry per
// supported currency.
type RateTable map[Currency]float64

// Validate checks the RateTable invariant: full coverage, positive finite rates.
func (t RateTable) Validate() error {
	for _, c := range SupportedCurrencies {
		rate, ok := t[c]
		if !ok {
			return fmt.Errorf("rate table missing entry for %s", c)
		}
		if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			return fmt.Errorf("rate table has invalid rate %v for %s", rate, c)
		}
	}
	return nil
}

// Clone returns a copy so callers can never mutate a cached table in place.
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for c, r := range t {
		out[c] = r
	}
	return out
}

// RateOrigin identifies where a snapshot's rates came from.
type RateOrigin string

const (
	OriginAPI      RateOrigin = "api"
	OriginFallback RateOrigin = "fallback"
)

// RateSnapshot is an immutable cached rate table with its lifetime.
// Snapshots are superseded wholesale on the next fetch, never mutated.
type RateSnapshot struct {
	Rates     RateTable  `json:"rates"`
	FetchedAt time.Time  `json:"fetched_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	Origin    RateOrigin `json:"origin"`
}

// Expired reports whether the snapshot is past its expiry at the given time.
func (s *RateSnapshot) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// DailyRange is the heuristic intraday high/low band around a rate.
type DailyRange struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// ExchangeRateResult is the per-request derived view of a pair's rate.
// It is computed fresh from a RateSnapshot and never stored.
type ExchangeRateResult struct {
	Pair       CurrencyPair `json:"pair"`
	Rate       float64      `json:"rate"`
	Spread     float64      `json:"spread"`
	Volatility float64      `json:"volatility"`
	DailyRange DailyRange   `json:"daily_range"`
	Source     RateOrigin   `json:"source"`
}
