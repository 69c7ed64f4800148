// Package calculator computes forex position sizes and the risk profile of
// a planned trade from account balance, risk percentage, stop loss and
// leverage.
package calculator

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/fxcalc/internal/domain"
	"github.com/aristath/fxcalc/internal/rates"
)

const (
	standardLot = 100000

	// MaxLeverage is the upper bound accepted from user input and the base
	// cap the recommended-leverage reduction starts from.
	MaxLeverage = 2000
)

// DisplayUnit selects how position size is rounded for display.
type DisplayUnit string

const (
	UnitLots  DisplayUnit = "lots"
	UnitUnits DisplayUnit = "units"
)

// Input is the validated calculation request.
type Input struct {
	AccountBalance  float64         `json:"account_balance"`
	RiskPercentage  float64         `json:"risk_percentage"`
	StopLossPips    float64         `json:"stop_loss_pips"`
	TakeProfitPips  float64         `json:"take_profit_pips"`
	Leverage        float64         `json:"leverage"`
	AccountCurrency domain.Currency `json:"account_currency"`
	BaseCurrency    domain.Currency `json:"base_currency"`
	QuoteCurrency   domain.Currency `json:"quote_currency"`
	DisplayUnit     DisplayUnit     `json:"display_unit"`
}

// Validate checks every field and returns one error per offending field so
// the response can list them all at once.
func (in Input) Validate() domain.ValidationErrors {
	var errs domain.ValidationErrors

	if in.AccountBalance <= 0 {
		errs = append(errs, &domain.ValidationError{Field: "account_balance", Message: "must be greater than 0"})
	}
	if in.RiskPercentage <= 0 || in.RiskPercentage > 100 {
		errs = append(errs, &domain.ValidationError{Field: "risk_percentage", Message: "must be in (0, 100]"})
	}
	if in.StopLossPips <= 0 {
		errs = append(errs, &domain.ValidationError{Field: "stop_loss_pips", Message: "must be greater than 0"})
	}
	if in.Leverage < 0 || in.Leverage > MaxLeverage {
		errs = append(errs, &domain.ValidationError{Field: "leverage", Message: "must be in [0, 2000]"})
	}
	if !domain.IsSupported(in.AccountCurrency) {
		errs = append(errs, &domain.ValidationError{Field: "account_currency", Message: "unsupported currency"})
	}
	if _, err := domain.NewPair(string(in.BaseCurrency), string(in.QuoteCurrency)); err != nil {
		errs = append(errs, &domain.ValidationError{Field: "pair", Message: err.Error()})
	}
	if in.DisplayUnit != "" && in.DisplayUnit != UnitLots && in.DisplayUnit != UnitUnits {
		errs = append(errs, &domain.ValidationError{Field: "display_unit", Message: `must be "lots" or "units"`})
	}
	return errs
}

// RiskAnalysis is the scored risk profile attached to every result.
type RiskAnalysis struct {
	RiskRating             string   `json:"risk_rating"`
	RiskScore              float64  `json:"risk_score"`
	Suggestions            []string `json:"suggestions"`
	MaxRecommendedLeverage int      `json:"max_recommended_leverage"`
}

// Result is the full calculation output.
type Result struct {
	PositionSize     float64         `json:"position_size"`
	PositionSizeLots float64         `json:"position_size_lots"`
	PotentialLoss    float64         `json:"potential_loss"`
	RequiredMargin   float64         `json:"required_margin"`
	PipValue         float64         `json:"pip_value"`
	Rate             float64         `json:"rate"`
	RiskAnalysis     RiskAnalysis    `json:"risk_analysis"`
	DisplayUnit      DisplayUnit     `json:"display_unit"`
	Leverage         float64         `json:"leverage"`
	AccountCurrency  domain.Currency `json:"account_currency"`
	UsedFallbackRate bool            `json:"used_fallback_rate"`
}

// RateResolver is the slice of the rates service the calculator needs.
type RateResolver interface {
	GetSnapshot(ctx context.Context) *domain.RateSnapshot
	ResolveRate(ctx context.Context, pair domain.CurrencyPair) (domain.ExchangeRateResult, error)
}

// Service wires rate resolution into the position-size algorithm.
type Service struct {
	resolver RateResolver
	log      zerolog.Logger
}

func NewService(resolver RateResolver, log zerolog.Logger) *Service {
	return &Service{
		resolver: resolver,
		log:      log.With().Str("service", "calculator").Logger(),
	}
}

// Calculate validates the input and computes position size, margin, pip
// value and the risk profile. Rate-resolution failures are absorbed into the
// fallback table and flagged on the result, never surfaced as errors.
func (s *Service) Calculate(ctx context.Context, in Input) (*Result, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return nil, errs
	}
	if in.DisplayUnit == "" {
		in.DisplayUnit = UnitLots
	}

	pair := domain.CurrencyPair{Base: in.BaseCurrency, Quote: in.QuoteCurrency}
	table, resolved, usedFallback := s.resolveRates(ctx, pair)

	riskAmount := in.AccountBalance * in.RiskPercentage / 100

	lotPipValue, err := pipValuePerLot(table, pair, in.AccountCurrency, resolved.Rate)
	if err != nil {
		// Only reachable with a table missing supported currencies, which
		// the fallback table never is.
		return nil, err
	}

	positionLots := riskAmount / (in.StopLossPips * lotPipValue)
	positionUnits := positionLots * standardLot

	// Notional value in quote currency, converted to the account currency
	// before the leverage division.
	positionValue := positionUnits * resolved.Rate
	if in.AccountCurrency != pair.Quote {
		conv, err := rates.CrossRate(table, pair.Quote, in.AccountCurrency)
		if err != nil {
			return nil, err
		}
		positionValue *= conv
	}

	requiredMargin := positionValue
	if in.Leverage > 0 {
		requiredMargin = positionValue / in.Leverage
	}

	analysis := AnalyzeRisk(in.AccountBalance, in.RiskPercentage, in.StopLossPips, in.Leverage, resolved.Volatility)

	result := &Result{
		PositionSize:     roundUnits(positionUnits, in.DisplayUnit),
		PositionSizeLots: round2(positionLots),
		PotentialLoss:    round2(riskAmount),
		RequiredMargin:   round2(requiredMargin),
		PipValue:         round2(positionLots * lotPipValue),
		Rate:             resolved.Rate,
		RiskAnalysis:     analysis,
		DisplayUnit:      in.DisplayUnit,
		Leverage:         in.Leverage,
		AccountCurrency:  in.AccountCurrency,
		UsedFallbackRate: usedFallback,
	}

	s.log.Debug().
		Str("pair", pair.String()).
		Float64("lots", result.PositionSizeLots).
		Float64("risk_score", analysis.RiskScore).
		Bool("used_fallback", usedFallback).
		Msg("Calculated position size")

	return result, nil
}

// Scenario builds the suggestion-engine view of a calculation.
func (s *Service) Scenario(in Input, result *Result) domain.TradingScenario {
	return domain.TradingScenario{
		AccountBalance:  in.AccountBalance,
		AccountCurrency: in.AccountCurrency,
		RiskAmount:      result.PotentialLoss,
		PositionSize:    result.PositionSize,
		StopLossPips:    in.StopLossPips,
		TakeProfitPips:  in.TakeProfitPips,
	}
}

// resolveRates returns the rate table and resolved pair rate, substituting
// the fallback table when resolution fails. The bool reports whether
// fallback data was used, either by substitution here or because the cached
// snapshot itself originated from fallback.
func (s *Service) resolveRates(ctx context.Context, pair domain.CurrencyPair) (domain.RateTable, domain.ExchangeRateResult, bool) {
	snap := s.resolver.GetSnapshot(ctx)

	resolved, err := s.resolver.ResolveRate(ctx, pair)
	if err == nil {
		return snap.Rates, resolved, snap.Origin == domain.OriginFallback
	}

	s.log.Warn().Err(err).Msg("Rate resolution failed, substituting fallback table")

	table := rates.FallbackTable()
	rate, crossErr := rates.CrossRate(table, pair.Base, pair.Quote)
	if crossErr != nil {
		// The fallback table covers every supported currency; a validated
		// pair cannot miss.
		rate = 1
	}
	return table, domain.ExchangeRateResult{
		Pair:       pair,
		Rate:       rate,
		Volatility: 0.001,
		Source:     domain.OriginFallback,
	}, true
}

// pipValuePerLot computes the account-currency value of one pip for a
// standard lot. The three cases are not numerically interchangeable:
// quote==account uses units×pipSize directly, account-as-base divides by the
// pair rate, and cross pairs convert through the quote currency.
func pipValuePerLot(table domain.RateTable, pair domain.CurrencyPair, account domain.Currency, rate float64) (float64, error) {
	quoteValue := standardLot * pair.PipSize()

	switch account {
	case pair.Quote:
		return quoteValue, nil
	case pair.Base:
		return quoteValue / rate, nil
	default:
		conv, err := rates.CrossRate(table, pair.Quote, account)
		if err != nil {
			return 0, err
		}
		return quoteValue * conv, nil
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundUnits(units float64, unit DisplayUnit) float64 {
	if unit == UnitUnits {
		return math.Round(units)
	}
	return round2(units)
}
