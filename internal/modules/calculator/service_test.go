package calculator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fxcalc/internal/domain"
	"github.com/aristath/fxcalc/internal/rates"
)

// fakeResolver serves a fixed table, optionally failing pair resolution.
type fakeResolver struct {
	table      domain.RateTable
	origin     domain.RateOrigin
	resolveErr error
}

func (f *fakeResolver) GetSnapshot(_ context.Context) *domain.RateSnapshot {
	return &domain.RateSnapshot{
		Rates:     f.table,
		FetchedAt: time.Now(),
		ExpiresAt: time.Now().Add(12 * time.Hour),
		Origin:    f.origin,
	}
}

func (f *fakeResolver) ResolveRate(_ context.Context, pair domain.CurrencyPair) (domain.ExchangeRateResult, error) {
	if f.resolveErr != nil {
		return domain.ExchangeRateResult{}, f.resolveErr
	}
	rate, err := rates.CrossRate(f.table, pair.Base, pair.Quote)
	if err != nil {
		return domain.ExchangeRateResult{}, err
	}
	return domain.ExchangeRateResult{Pair: pair, Rate: rate, Volatility: 0.001, Source: f.origin}, nil
}

// calcTable pins EUR/USD at exactly 1.0850 and USD/JPY at 149.50.
func calcTable() domain.RateTable {
	return domain.RateTable{
		domain.USD: 1.0,
		domain.EUR: 1 / 1.0850,
		domain.GBP: 0.79,
		domain.JPY: 149.50,
		domain.CHF: 0.89,
		domain.CAD: 1.36,
		domain.AUD: 1.54,
		domain.NZD: 1.67,
	}
}

func newTestService(resolver RateResolver) *Service {
	return NewService(resolver, zerolog.Nop())
}

func TestCalculate_EURUSDWorkedExample(t *testing.T) {
	svc := newTestService(&fakeResolver{table: calcTable(), origin: domain.OriginAPI})

	got, err := svc.Calculate(context.Background(), Input{
		AccountBalance:  10000,
		RiskPercentage:  2,
		StopLossPips:    20,
		Leverage:        100,
		AccountCurrency: domain.USD,
		BaseCurrency:    domain.EUR,
		QuoteCurrency:   domain.USD,
		DisplayUnit:     UnitLots,
	})
	require.NoError(t, err)

	// $200 risk over 20 pips at $10/pip per lot = exactly 1 standard lot.
	assert.InDelta(t, 200.0, got.PotentialLoss, 0.01)
	assert.InDelta(t, 1.0, got.PositionSizeLots, 0.001)
	assert.InDelta(t, 100000.0, got.PositionSize, 1)
	assert.InDelta(t, 10.0, got.PipValue, 0.01)
	assert.InDelta(t, 1085.0, got.RequiredMargin, 0.01)
	assert.False(t, got.UsedFallbackRate)
}

func TestCalculate_USDJPYWorkedExample(t *testing.T) {
	svc := newTestService(&fakeResolver{table: calcTable(), origin: domain.OriginAPI})

	got, err := svc.Calculate(context.Background(), Input{
		AccountBalance:  5000,
		RiskPercentage:  1,
		StopLossPips:    30,
		Leverage:        100,
		AccountCurrency: domain.USD,
		BaseCurrency:    domain.USD,
		QuoteCurrency:   domain.JPY,
		DisplayUnit:     UnitLots,
	})
	require.NoError(t, err)

	// Pip value for one lot with USD as base: 100,000*0.01/149.50 = $6.689.
	assert.InDelta(t, 50.0, got.PotentialLoss, 0.01)
	assert.InDelta(t, 0.25, got.PositionSizeLots, 0.001)
	assert.InDelta(t, 1.67, got.PipValue, 0.01)
}

func TestCalculate_CrossPairConvertsThroughQuote(t *testing.T) {
	// EUR/GBP with a USD account: pip value converts GBP to USD.
	svc := newTestService(&fakeResolver{table: calcTable(), origin: domain.OriginAPI})

	got, err := svc.Calculate(context.Background(), Input{
		AccountBalance:  10000,
		RiskPercentage:  2,
		StopLossPips:    20,
		Leverage:        100,
		AccountCurrency: domain.USD,
		BaseCurrency:    domain.EUR,
		QuoteCurrency:   domain.GBP,
	})
	require.NoError(t, err)

	// One lot pip value: 100,000*0.0001 GBP = 10 GBP = 10/0.79 USD ≈ 12.658.
	// Lots = 200 / (20*12.658) ≈ 0.79.
	assert.InDelta(t, 0.79, got.PositionSizeLots, 0.001)
	assert.Greater(t, got.RequiredMargin, 0.0)
}

func TestCalculate_ZeroLeverageUsesFullNotional(t *testing.T) {
	svc := newTestService(&fakeResolver{table: calcTable(), origin: domain.OriginAPI})

	in := Input{
		AccountBalance:  10000,
		RiskPercentage:  2,
		StopLossPips:    20,
		Leverage:        0,
		AccountCurrency: domain.USD,
		BaseCurrency:    domain.EUR,
		QuoteCurrency:   domain.USD,
	}
	got, err := svc.Calculate(context.Background(), in)
	require.NoError(t, err)

	// No leverage: margin is the full notional, 100,000 units * 1.0850.
	assert.InDelta(t, 108500.0, got.RequiredMargin, 0.01)
}

func TestCalculate_PositionSizeAlwaysPositive(t *testing.T) {
	svc := newTestService(&fakeResolver{table: calcTable(), origin: domain.OriginAPI})

	for _, pair := range domain.AllPairs() {
		got, err := svc.Calculate(context.Background(), Input{
			AccountBalance:  2500,
			RiskPercentage:  1.5,
			StopLossPips:    15,
			Leverage:        50,
			AccountCurrency: domain.USD,
			BaseCurrency:    pair.Base,
			QuoteCurrency:   pair.Quote,
		})
		require.NoError(t, err, "pair %s", pair)
		assert.Greater(t, got.PositionSizeLots, 0.0, "pair %s", pair)
		assert.Greater(t, got.RequiredMargin, 0.0, "pair %s", pair)
	}
}

func TestCalculate_ValidationListsAllBadFields(t *testing.T) {
	svc := newTestService(&fakeResolver{table: calcTable(), origin: domain.OriginAPI})

	_, err := svc.Calculate(context.Background(), Input{
		AccountBalance:  -1,
		RiskPercentage:  150,
		StopLossPips:    0,
		Leverage:        5000,
		AccountCurrency: "XXX",
		BaseCurrency:    domain.EUR,
		QuoteCurrency:   domain.EUR,
	})
	require.Error(t, err)

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := make([]string, len(verrs))
	for i, v := range verrs {
		fields[i] = v.Field
	}
	assert.ElementsMatch(t, fields, []string{
		"account_balance", "risk_percentage", "stop_loss_pips", "leverage", "account_currency", "pair",
	})
}

func TestCalculate_RiskPercentageBoundaries(t *testing.T) {
	svc := newTestService(&fakeResolver{table: calcTable(), origin: domain.OriginAPI})

	base := Input{
		AccountBalance:  1000,
		StopLossPips:    10,
		Leverage:        100,
		AccountCurrency: domain.USD,
		BaseCurrency:    domain.EUR,
		QuoteCurrency:   domain.USD,
	}

	base.RiskPercentage = 100
	got, err := svc.Calculate(context.Background(), base)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, got.PotentialLoss, 0.01)

	base.RiskPercentage = 100.01
	_, err = svc.Calculate(context.Background(), base)
	assert.Error(t, err)
}

func TestCalculate_FallbackOnResolutionFailure(t *testing.T) {
	svc := newTestService(&fakeResolver{
		table:      calcTable(),
		origin:     domain.OriginAPI,
		resolveErr: errors.New("rate table missing entry"),
	})

	got, err := svc.Calculate(context.Background(), Input{
		AccountBalance:  10000,
		RiskPercentage:  2,
		StopLossPips:    20,
		Leverage:        100,
		AccountCurrency: domain.USD,
		BaseCurrency:    domain.EUR,
		QuoteCurrency:   domain.USD,
	})
	require.NoError(t, err, "rate failures must degrade, not fail")

	assert.True(t, got.UsedFallbackRate)
	assert.Greater(t, got.PositionSizeLots, 0.0)
}

func TestCalculate_FallbackOriginFlagsResult(t *testing.T) {
	svc := newTestService(&fakeResolver{table: calcTable(), origin: domain.OriginFallback})

	got, err := svc.Calculate(context.Background(), Input{
		AccountBalance:  10000,
		RiskPercentage:  2,
		StopLossPips:    20,
		Leverage:        100,
		AccountCurrency: domain.USD,
		BaseCurrency:    domain.EUR,
		QuoteCurrency:   domain.USD,
	})
	require.NoError(t, err)
	assert.True(t, got.UsedFallbackRate)
}

func TestCalculate_UnitsDisplayRounding(t *testing.T) {
	svc := newTestService(&fakeResolver{table: calcTable(), origin: domain.OriginAPI})

	got, err := svc.Calculate(context.Background(), Input{
		AccountBalance:  5000,
		RiskPercentage:  1,
		StopLossPips:    30,
		Leverage:        100,
		AccountCurrency: domain.USD,
		BaseCurrency:    domain.USD,
		QuoteCurrency:   domain.JPY,
		DisplayUnit:     UnitUnits,
	})
	require.NoError(t, err)

	assert.Equal(t, got.PositionSize, float64(int64(got.PositionSize)), "units display rounds to whole units")
	assert.InDelta(t, 24917.0, got.PositionSize, 1)
}

func TestScenario_CarriesCalculationOutputs(t *testing.T) {
	svc := newTestService(&fakeResolver{table: calcTable(), origin: domain.OriginAPI})

	in := Input{
		AccountBalance:  10000,
		RiskPercentage:  2,
		StopLossPips:    20,
		TakeProfitPips:  40,
		Leverage:        100,
		AccountCurrency: domain.USD,
		BaseCurrency:    domain.EUR,
		QuoteCurrency:   domain.USD,
	}
	got, err := svc.Calculate(context.Background(), in)
	require.NoError(t, err)

	scenario := svc.Scenario(in, got)
	assert.True(t, scenario.Complete())
	assert.InDelta(t, 200.0, scenario.RiskAmount, 0.01)
	assert.Equal(t, in.TakeProfitPips, scenario.TakeProfitPips)
}
