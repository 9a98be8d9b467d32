package backtest

import (
	"math"

	"github.com/newthinker/compass/internal/core"
)

// ValidationResult compares one prediction against the realized outcome.
type ValidationResult struct {
	Prediction      Prediction `json:"prediction"`
	ActualReturnPct float64    `json:"actual_return_pct"`
	MaxGainPct      float64    `json:"max_gain_pct"`
	MaxDrawdownPct  float64    `json:"max_drawdown_pct"`
	IsCorrect       bool       `json:"is_correct"`
	IsProfitable    bool       `json:"is_profitable"`
}

// Validator scores predictions against outcomes and accumulates results.
type Validator struct {
	results []ValidationResult
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate compares the prediction against the period's outcome window.
// A buy call is correct on a positive return, a sell call on a negative
// one; a hold call is never counted incorrect. Profitable means the return
// moved in the direction a position taken on the call would have needed.
func (v *Validator) Validate(period Period, pred Prediction) ValidationResult {
	actual := round2(period.ActualReturnPct())

	result := ValidationResult{
		Prediction:      pred,
		ActualReturnPct: actual,
		MaxGainPct:      round2(period.MaxGainPct()),
		MaxDrawdownPct:  round2(period.MaxDrawdownPct()),
	}

	switch {
	case pred.Kind.IsBuy():
		result.IsCorrect = actual > 0
		result.IsProfitable = actual > 0
	case pred.Kind.IsSell():
		result.IsCorrect = actual < 0
		result.IsProfitable = actual < 0
	default:
		result.IsCorrect = true
		result.IsProfitable = false
	}

	v.results = append(v.results, result)
	return result
}

// Results returns everything validated so far.
func (v *Validator) Results() []ValidationResult {
	return v.results
}

// Clear drops accumulated results.
func (v *Validator) Clear() {
	v.results = nil
}

// Report aggregates the accumulated results.
func (v *Validator) Report() AccuracyReport {
	return buildReport(v.results)
}

// AccuracyReport is the aggregate outcome of a backtest run.
type AccuracyReport struct {
	TotalPredictions      int                         `json:"total_predictions"`
	CorrectPredictions    int                         `json:"correct_predictions"`
	ProfitablePredictions int                         `json:"profitable_predictions"`
	OverallAccuracy       float64                     `json:"overall_accuracy"`      // 0-1
	OverallProfitability  float64                     `json:"overall_profitability"` // 0-1
	WinRate               float64                     `json:"win_rate"`              // 0-1, actionable calls only
	SignalCounts          map[core.SignalKind]int     `json:"signal_counts"`
	SignalAccuracy        map[core.SignalKind]float64 `json:"signal_accuracy"`
	SignalProfitability   map[core.SignalKind]float64 `json:"signal_profitability"`
	AvgReturnOnBuy        float64                     `json:"avg_return_on_buy"`
	AvgReturnOnSell       float64                     `json:"avg_return_on_sell"`
}

func buildReport(results []ValidationResult) AccuracyReport {
	report := AccuracyReport{
		SignalCounts:        make(map[core.SignalKind]int),
		SignalAccuracy:      make(map[core.SignalKind]float64),
		SignalProfitability: make(map[core.SignalKind]float64),
	}
	if len(results) == 0 {
		return report
	}

	correctByKind := make(map[core.SignalKind]int)
	profitableByKind := make(map[core.SignalKind]int)

	var buySum, sellSum float64
	var buyN, sellN, actionable, profitableActionable int

	for _, r := range results {
		kind := r.Prediction.Kind
		report.TotalPredictions++
		report.SignalCounts[kind]++
		if r.IsCorrect {
			report.CorrectPredictions++
			correctByKind[kind]++
		}
		if r.IsProfitable {
			report.ProfitablePredictions++
			profitableByKind[kind]++
		}

		switch {
		case kind.IsBuy():
			buySum += r.ActualReturnPct
			buyN++
			actionable++
			if r.IsProfitable {
				profitableActionable++
			}
		case kind.IsSell():
			sellSum += r.ActualReturnPct
			sellN++
			actionable++
			if r.IsProfitable {
				profitableActionable++
			}
		}
	}

	total := float64(report.TotalPredictions)
	report.OverallAccuracy = float64(report.CorrectPredictions) / total
	report.OverallProfitability = float64(report.ProfitablePredictions) / total
	if actionable > 0 {
		report.WinRate = float64(profitableActionable) / float64(actionable)
	}
	for kind, count := range report.SignalCounts {
		report.SignalAccuracy[kind] = float64(correctByKind[kind]) / float64(count)
		report.SignalProfitability[kind] = float64(profitableByKind[kind]) / float64(count)
	}
	if buyN > 0 {
		report.AvgReturnOnBuy = round2(buySum / float64(buyN))
	}
	if sellN > 0 {
		report.AvgReturnOnSell = round2(sellSum / float64(sellN))
	}
	return report
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
