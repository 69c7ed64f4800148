package domain

// TradingScenario is the explicit data structure the suggestion engine
// inspects. Constructed fresh per calculation request and validated at the
// boundary - callers never pass ad-hoc shapes.
type TradingScenario struct {
	AccountBalance  float64  `json:"account_balance"`
	AccountCurrency Currency `json:"account_currency"`
	RiskAmount      float64  `json:"risk_amount"`
	PositionSize    float64  `json:"position_size"`
	StopLossPips    float64  `json:"stop_loss_pips"`
	TakeProfitPips  float64  `json:"take_profit_pips"`
}

// Complete reports whether the scenario carries enough data for the
// suggestion rules to evaluate. Incomplete scenarios yield no suggestions
// rather than an error.
func (s TradingScenario) Complete() bool {
	return s.AccountBalance > 0 && s.StopLossPips > 0 && s.TakeProfitPips > 0
}
