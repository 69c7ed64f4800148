package suggestions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fxcalc/internal/domain"
)

func baseScenario() domain.TradingScenario {
	return domain.TradingScenario{
		AccountBalance:  5000,
		AccountCurrency: domain.USD,
		RiskAmount:      100, // 2%
		PositionSize:    10000,
		StopLossPips:    20,
		TakeProfitPips:  40,
	}
}

func messagesOf(suggestions []Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Message
	}
	return out
}

func TestSuggest_IncompleteScenarioYieldsNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.TradingScenario)
	}{
		{"zero balance", func(s *domain.TradingScenario) { s.AccountBalance = 0 }},
		{"zero stop loss", func(s *domain.TradingScenario) { s.StopLossPips = 0 }},
		{"zero take profit", func(s *domain.TradingScenario) { s.TakeProfitPips = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := baseScenario()
			tt.mutate(&scenario)
			assert.Empty(t, Suggest(scenario))
		})
	}
}

func TestSuggest_GoodScenarioGetsSuccesses(t *testing.T) {
	got := Suggest(baseScenario())
	require.NotEmpty(t, got)

	// 2% risk and a 2:1 reward ratio both match success rules.
	var severities []Severity
	for _, s := range got {
		severities = append(severities, s.Severity)
	}
	assert.NotContains(t, severities, SeverityWarning)
	assert.Contains(t, messagesOf(got), "Good Risk Management: Your risk of 2.0% is within safe limits.")
	assert.Contains(t, messagesOf(got), "Excellent Risk-Reward: Your RR ratio of 2.0 provides good profit potential.")
}

func TestSuggest_HighRiskWarning(t *testing.T) {
	scenario := baseScenario()
	scenario.RiskAmount = 250 // 5% of 5000

	got := Suggest(scenario)
	require.NotEmpty(t, got)
	assert.Equal(t, SeverityWarning, got[0].Severity)
	assert.Contains(t, got[0].Message, "High Risk Alert")
	assert.Contains(t, got[0].Message, "$250.00")
	assert.Contains(t, got[0].Message, "5.0%")
}

func TestSuggest_HighLeverageWarning(t *testing.T) {
	scenario := baseScenario()
	scenario.PositionSize = 20000 // 4x balance

	found := false
	for _, s := range Suggest(scenario) {
		if s.Severity == SeverityWarning && strings.HasPrefix(s.Message, "High Leverage Warning") {
			found = true
			assert.Contains(t, s.Message, "$20,000.00")
		}
	}
	assert.True(t, found, "expected a high leverage warning")
}

func TestSuggest_TightStopIsInfo(t *testing.T) {
	scenario := baseScenario()
	scenario.StopLossPips = 5
	scenario.TakeProfitPips = 10

	got := Suggest(scenario)
	assert.Contains(t, messagesOf(got),
		"Tight Stop Loss: Your stop loss of 5 pips is quite tight. Consider widening it to account for market volatility.")
}

func TestSuggest_AccountSizeAdvice(t *testing.T) {
	small := baseScenario()
	small.AccountBalance = 500
	small.RiskAmount = 10
	assert.Contains(t, messagesOf(Suggest(small)),
		"Small Account Strategy: With an account balance of $500.00, focus on consistent small gains and strict risk management.")

	large := baseScenario()
	large.AccountBalance = 25000
	large.RiskAmount = 500
	assert.Contains(t, messagesOf(Suggest(large)),
		"Capital Preservation: With a substantial account of $25,000.00, consider splitting risk across multiple smaller positions.")
}

func TestSuggest_LowRewardRatioWarning(t *testing.T) {
	scenario := baseScenario()
	scenario.TakeProfitPips = 20 // 1.0 ratio

	got := Suggest(scenario)
	assert.Contains(t, messagesOf(got),
		"Low Risk-Reward Ratio: Your RR ratio of 1.0 is below the recommended 1:2. Consider adjusting your take profit level.")
}

func TestSuggest_SeverityOrdering(t *testing.T) {
	// Construct a scenario matching warning, info, and success rules at once:
	// high risk (warning), tight stop (info), huge account (info), good RR (success).
	scenario := domain.TradingScenario{
		AccountBalance:  20000,
		AccountCurrency: domain.EUR,
		RiskAmount:      1000, // 5%
		PositionSize:    10000,
		StopLossPips:    5,
		TakeProfitPips:  15, // ratio 3.0
	}

	got := Suggest(scenario)
	require.GreaterOrEqual(t, len(got), 3)

	last := -1
	for _, s := range got {
		rank := severityRank[s.Severity]
		assert.GreaterOrEqual(t, rank, last, "severities must be non-decreasing")
		last = rank
	}
	assert.Equal(t, SeverityWarning, got[0].Severity)
	assert.Equal(t, SeveritySuccess, got[len(got)-1].Severity)
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$10,000.00", formatCurrency(10000, domain.USD))
	assert.Equal(t, "€92.50", formatCurrency(92.5, domain.EUR))
	assert.Equal(t, "¥1,234,567.89", formatCurrency(1234567.891, domain.JPY))
	assert.Equal(t, "$-250.00", formatCurrency(-250, domain.USD))
}
