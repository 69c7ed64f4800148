package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeRisk_ModerateSetup(t *testing.T) {
	// 2% risk, 20 pip stop, 100x leverage on a $10k account.
	got := AnalyzeRisk(10000, 2, 20, 100, 0.001)

	// 66.67*0.4 + 50*0.3 + 5*0.2 + 20*0.1
	assert.InDelta(t, 44.67, got.RiskScore, 0.01)
	assert.Equal(t, RatingMedium, got.RiskRating)
	assert.Equal(t, 1200, got.MaxRecommendedLeverage)
	assert.Empty(t, got.Suggestions)
}

func TestAnalyzeRisk_AggressiveSetup(t *testing.T) {
	// 5% risk, 5 pip stop, 1000x leverage on a $500 account saturates the
	// risk and stop-loss factors.
	got := AnalyzeRisk(500, 5, 5, 1000, 0.001)

	assert.InDelta(t, 84.60, got.RiskScore, 0.01)
	assert.Equal(t, RatingVeryHigh, got.RiskRating)

	require.Len(t, got.Suggestions, 4)
	assert.Contains(t, got.Suggestions[0], "reducing risk percentage")
	assert.Contains(t, got.Suggestions[1], "reducing leverage")
	assert.Contains(t, got.Suggestions[2], "Stop loss is very tight")
	assert.Contains(t, got.Suggestions[3], "Overall risk is very high")
}

func TestAnalyzeRisk_ScoreCappedAt100(t *testing.T) {
	got := AnalyzeRisk(1, 100, 0.5, 2000, 0.001)
	assert.LessOrEqual(t, got.RiskScore, 100.0)
	assert.GreaterOrEqual(t, got.RiskScore, 0.0)
	assert.Equal(t, RatingVeryHigh, got.RiskRating)
}

func TestRiskRating_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, RatingLow},
		{24.99, RatingLow},
		{25, RatingMedium},
		{49.99, RatingMedium},
		{50, RatingHigh},
		{74.99, RatingHigh},
		{75, RatingVeryHigh},
		{100, RatingVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, riskRating(tt.score), "score %.2f", tt.score)
	}
}

func TestMaxRecommendedLeverage_Clamped(t *testing.T) {
	// All multipliers near their floors still yield at least 1.
	assert.Equal(t, 1, maxRecommendedLeverage(10, 100, 0.1))

	// Ideal parameters never exceed the base cap.
	assert.Equal(t, MaxLeverage, maxRecommendedLeverage(1e9, 0, 1000))
	assert.Equal(t, 1996, maxRecommendedLeverage(1e9, 0.01, 1000))
}

func TestMaxRecommendedLeverage_WiderStopAllowsMore(t *testing.T) {
	narrow := maxRecommendedLeverage(10000, 1, 5)
	wide := maxRecommendedLeverage(10000, 1, 40)
	assert.Greater(t, wide, narrow)
}
