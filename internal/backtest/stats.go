package backtest

import (
	"math"
)

// Crypto markets trade every day; annualization uses 365 periods, not the
// 252 trading days of equity markets.
const (
	daysPerYear        = 365.0
	annualRiskFreeRate = 0.04
)

// Stats summarizes the equity curve of mechanically following the signals:
// long after a buy call, short after a sell call, flat after a hold.
type Stats struct {
	Trades         int     `json:"trades"` // actionable calls taken
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`         // 0-1
	TotalReturnPct float64 `json:"total_return_pct"` // compounded
	MaxDrawdownPct float64 `json:"max_drawdown_pct"` // peak-to-trough, positive
	SharpeRatio    float64 `json:"sharpe_ratio"`     // annualized
}

// ComputeStats builds statistics from validated periods. outcomeWindowDays
// is the holding period of each trade and drives annualization.
func ComputeStats(results []ValidationResult, outcomeWindowDays int) Stats {
	if outcomeWindowDays <= 0 {
		outcomeWindowDays = 7
	}

	var returns []float64
	var stats Stats
	for _, r := range results {
		var ret float64
		switch {
		case r.Prediction.Kind.IsBuy():
			ret = r.ActualReturnPct / 100
		case r.Prediction.Kind.IsSell():
			ret = -r.ActualReturnPct / 100
		default:
			continue
		}
		returns = append(returns, ret)
		stats.Trades++
		if ret > 0 {
			stats.WinningTrades++
		} else if ret < 0 {
			stats.LosingTrades++
		}
	}
	if stats.Trades == 0 {
		return stats
	}

	decided := stats.WinningTrades + stats.LosingTrades
	if decided > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(decided)
	}

	cumulative := 1.0
	peak := 1.0
	var maxDD float64
	for _, ret := range returns {
		cumulative *= 1 + ret
		if cumulative > peak {
			peak = cumulative
		}
		if dd := (peak - cumulative) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	stats.TotalReturnPct = round2((cumulative - 1) * 100)
	stats.MaxDrawdownPct = round2(maxDD * 100)
	stats.SharpeRatio = sharpeRatio(returns, outcomeWindowDays)
	return stats
}

// sharpeRatio annualizes per-trade excess returns over the configured
// risk-free rate, scaled by the holding period.
func sharpeRatio(returns []float64, holdingDays int) float64 {
	if len(returns) < 2 {
		return 0
	}

	periodsPerYear := daysPerYear / float64(holdingDays)
	riskFreePerPeriod := annualRiskFreeRate / periodsPerYear

	var sum float64
	for _, r := range returns {
		sum += r - riskFreePerPeriod
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		excess := r - riskFreePerPeriod
		variance += (excess - mean) * (excess - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev == 0 {
		return 0
	}

	return mean / stdDev * math.Sqrt(periodsPerYear)
}
