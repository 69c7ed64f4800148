package calculator

import (
	"fmt"
	"math"
)

// Risk rating labels, bucketed at <25 / <50 / <75 on the 0-100 risk score.
const (
	RatingLow      = "Low"
	RatingMedium   = "Medium"
	RatingHigh     = "High"
	RatingVeryHigh = "Very High"
)

// Sub-score weights. Risk percentage dominates because it is the only
// factor the trader directly controls per trade.
const (
	weightRiskPercent = 0.4
	weightStopLoss    = 0.3
	weightLeverage    = 0.2
	weightBalance     = 0.1
)

// AnalyzeRisk scores the trade setup on a 0-100 scale from four factors:
// risk percentage (>3% saturates), stop-loss width (<10 pips saturates),
// leverage (>2000 saturates) and account balance (larger accounts score
// lower). The volatility input is reserved for a volatility-adjusted stop
// factor and does not currently change the score.
func AnalyzeRisk(accountBalance, riskPercentage, stopLossPips, leverage, _ float64) RiskAnalysis {
	riskPercentScore := math.Min(100, riskPercentage/3*100)
	stopLossScore := math.Min(100, 10/stopLossPips*100)
	leverageScore := math.Min(100, leverage/20)
	balanceScore := math.Max(0, 100-math.Log10(accountBalance)*20)

	score := math.Min(100,
		riskPercentScore*weightRiskPercent+
			stopLossScore*weightStopLoss+
			leverageScore*weightLeverage+
			balanceScore*weightBalance)

	maxLeverage := maxRecommendedLeverage(accountBalance, riskPercentage, stopLossPips)

	return RiskAnalysis{
		RiskRating:             riskRating(score),
		RiskScore:              score,
		Suggestions:            riskSuggestions(riskPercentage, stopLossPips, leverage, maxLeverage, score),
		MaxRecommendedLeverage: maxLeverage,
	}
}

func riskRating(score float64) string {
	switch {
	case score < 25:
		return RatingLow
	case score < 50:
		return RatingMedium
	case score < 75:
		return RatingHigh
	default:
		return RatingVeryHigh
	}
}

// maxRecommendedLeverage reduces the base cap multiplicatively: lower risk
// percentage, wider stops and larger balances each allow more leverage.
// Clamped to [1, MaxLeverage].
func maxRecommendedLeverage(accountBalance, riskPercentage, stopLossPips float64) int {
	riskMultiplier := math.Max(0.1, 1-riskPercentage/5)
	stopLossMultiplier := math.Min(1, stopLossPips/20)
	balanceMultiplier := math.Min(1, math.Log10(accountBalance)/4)

	recommended := math.Floor(MaxLeverage * riskMultiplier * stopLossMultiplier * balanceMultiplier)
	return int(math.Max(1, math.Min(MaxLeverage, recommended)))
}

func riskSuggestions(riskPercentage, stopLossPips, leverage float64, maxLeverage int, score float64) []string {
	suggestions := []string{}

	if riskPercentage > 2 {
		suggestions = append(suggestions, "Consider reducing risk percentage to 2% or less of account balance")
	}
	if leverage > float64(maxLeverage) {
		suggestions = append(suggestions, fmt.Sprintf(
			"Consider reducing leverage to %d:1 or less based on your current risk parameters", maxLeverage))
	}
	if stopLossPips < 10 {
		suggestions = append(suggestions, "Stop loss is very tight. Consider widening it to at least 10 pips")
	}
	if score > 75 {
		suggestions = append(suggestions, "Overall risk is very high. Consider adjusting multiple parameters to reduce risk")
	}
	return suggestions
}
