// Package suggestions evaluates advisory rules against a trading scenario.
// Rules are independent predicates - all matching rules fire, and results
// are ordered by severity so the UI can render warnings first.
package suggestions

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aristath/fxcalc/internal/domain"
)

// Severity classifies a suggestion for display ordering and styling.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// severityRank orders warnings before info before success.
var severityRank = map[Severity]int{
	SeverityWarning: 0,
	SeverityInfo:    1,
	SeveritySuccess: 2,
}

// Suggestion is a single advisory message for the trader.
type Suggestion struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// rule pairs a predicate with a message builder. Predicates must be pure
// functions of the scenario.
type rule struct {
	applies  func(domain.TradingScenario) bool
	message  func(domain.TradingScenario) string
	severity Severity
}

const (
	highRiskPercent      = 3.0
	safeRiskPercent      = 2.0
	highLeverageMultiple = 3.0
	tightStopPips        = 10.0
	smallAccountBalance  = 1000.0
	largeAccountBalance  = 10000.0
	lowRewardRatio       = 1.5
	goodRewardRatio      = 2.0
)

func riskPercent(s domain.TradingScenario) float64 {
	return s.RiskAmount / s.AccountBalance * 100
}

func rewardRatio(s domain.TradingScenario) float64 {
	return s.TakeProfitPips / s.StopLossPips
}

var rules = []rule{
	{
		applies: func(s domain.TradingScenario) bool { return riskPercent(s) > highRiskPercent },
		message: func(s domain.TradingScenario) string {
			return fmt.Sprintf(
				"High Risk Alert: Your current risk of %s represents %s of your account. Consider reducing position size to stay within 1-3%% risk per trade.",
				formatCurrency(s.RiskAmount, s.AccountCurrency), formatPercent(riskPercent(s)))
		},
		severity: SeverityWarning,
	},
	{
		applies: func(s domain.TradingScenario) bool { return riskPercent(s) <= safeRiskPercent },
		message: func(s domain.TradingScenario) string {
			return fmt.Sprintf("Good Risk Management: Your risk of %s is within safe limits.",
				formatPercent(riskPercent(s)))
		},
		severity: SeveritySuccess,
	},
	{
		applies: func(s domain.TradingScenario) bool {
			return s.PositionSize > s.AccountBalance*highLeverageMultiple
		},
		message: func(s domain.TradingScenario) string {
			return fmt.Sprintf(
				"High Leverage Warning: Your position size of %s is more than 3x your account balance. Consider reducing leverage to manage risk.",
				formatCurrency(s.PositionSize, s.AccountCurrency))
		},
		severity: SeverityWarning,
	},
	{
		applies: func(s domain.TradingScenario) bool { return s.StopLossPips < tightStopPips },
		message: func(s domain.TradingScenario) string {
			return fmt.Sprintf(
				"Tight Stop Loss: Your stop loss of %s pips is quite tight. Consider widening it to account for market volatility.",
				formatPips(s.StopLossPips))
		},
		severity: SeverityInfo,
	},
	{
		applies: func(s domain.TradingScenario) bool { return s.AccountBalance < smallAccountBalance },
		message: func(s domain.TradingScenario) string {
			return fmt.Sprintf(
				"Small Account Strategy: With an account balance of %s, focus on consistent small gains and strict risk management.",
				formatCurrency(s.AccountBalance, s.AccountCurrency))
		},
		severity: SeverityInfo,
	},
	{
		applies: func(s domain.TradingScenario) bool { return s.AccountBalance >= largeAccountBalance },
		message: func(s domain.TradingScenario) string {
			return fmt.Sprintf(
				"Capital Preservation: With a substantial account of %s, consider splitting risk across multiple smaller positions.",
				formatCurrency(s.AccountBalance, s.AccountCurrency))
		},
		severity: SeverityInfo,
	},
	{
		applies: func(s domain.TradingScenario) bool { return rewardRatio(s) < lowRewardRatio },
		message: func(s domain.TradingScenario) string {
			return fmt.Sprintf(
				"Low Risk-Reward Ratio: Your RR ratio of %.1f is below the recommended 1:2. Consider adjusting your take profit level.",
				rewardRatio(s))
		},
		severity: SeverityWarning,
	},
	{
		applies: func(s domain.TradingScenario) bool { return rewardRatio(s) >= goodRewardRatio },
		message: func(s domain.TradingScenario) string {
			return fmt.Sprintf(
				"Excellent Risk-Reward: Your RR ratio of %.1f provides good profit potential.",
				rewardRatio(s))
		},
		severity: SeveritySuccess,
	},
}

// Suggest evaluates every rule against the scenario and returns the matches
// sorted by severity. Incomplete scenarios produce no suggestions rather
// than an error; the form may be half-filled.
func Suggest(scenario domain.TradingScenario) []Suggestion {
	if !scenario.Complete() {
		return []Suggestion{}
	}

	matched := make([]Suggestion, 0, len(rules))
	for _, r := range rules {
		if r.applies(scenario) {
			matched = append(matched, Suggestion{Message: r.message(scenario), Severity: r.severity})
		}
	}

	// Stable sort keeps rule-table order within a severity band.
	sort.SliceStable(matched, func(i, j int) bool {
		return severityRank[matched[i].Severity] < severityRank[matched[j].Severity]
	})
	return matched
}

// currencySymbols maps supported currencies to their display symbol.
var currencySymbols = map[domain.Currency]string{
	domain.USD: "$",
	domain.EUR: "€",
	domain.GBP: "£",
	domain.JPY: "¥",
	domain.CHF: "CHF ",
	domain.CAD: "CA$",
	domain.AUD: "A$",
	domain.NZD: "NZ$",
}

func formatCurrency(value float64, currency domain.Currency) string {
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = string(currency) + " "
	}
	return symbol + groupThousands(fmt.Sprintf("%.2f", value))
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// formatPips renders whole-pip values without a decimal tail.
func formatPips(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// groupThousands inserts comma separators into the integer part of a
// fixed-point decimal string.
func groupThousands(s string) string {
	intPart, fracPart, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	out := b.String()
	if neg {
		out = "-" + out
	}
	if fracPart != "" {
		out += "." + fracPart
	}
	return out
}
