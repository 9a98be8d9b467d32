// Package backtest replays a candle series under point-in-time discipline
// and measures how well the analysis pipeline's signals predicted forward
// returns. Lookahead is structurally impossible: prediction code only ever
// receives Period.InputCandles.
package backtest

import (
	"time"

	"github.com/newthinker/compass/internal/core"
)

// Config controls period generation.
type Config struct {
	Symbol                string `mapstructure:"symbol"`
	Interval              string `mapstructure:"interval"`
	SignalFrequencyDays   int    `mapstructure:"signal_frequency_days"`
	OutcomeWindowDays     int    `mapstructure:"outcome_window_days"`
	MinCandlesForAnalysis int    `mapstructure:"min_candles_for_analysis"`
}

// DefaultConfig returns the standard backtest parameters for a symbol.
func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:                symbol,
		Interval:              core.Interval1d,
		SignalFrequencyDays:   7,
		OutcomeWindowDays:     7,
		MinCandlesForAnalysis: 200,
	}
}

func (c Config) withDefaults() Config {
	if c.Interval == "" {
		c.Interval = core.Interval1d
	}
	if c.SignalFrequencyDays <= 0 {
		c.SignalFrequencyDays = 7
	}
	if c.OutcomeWindowDays <= 0 {
		c.OutcomeWindowDays = 7
	}
	if c.MinCandlesForAnalysis <= 0 {
		c.MinCandlesForAnalysis = 200
	}
	return c
}

// Period is one simulated decision point. The backing slice is cut so that
// nothing after the outcome window is reachable; InputCandles ends exactly
// at the signal candle.
type Period struct {
	symbol    string
	candles   []core.Candle
	signalIdx int
}

// Symbol returns the symbol under test.
func (p Period) Symbol() string { return p.symbol }

// SignalTime is the time of the decision candle.
func (p Period) SignalTime() time.Time { return p.candles[p.signalIdx].Time }

// SignalPrice is the close of the decision candle.
func (p Period) SignalPrice() float64 { return p.candles[p.signalIdx].Close }

// InputCandles returns everything known at the signal time, the decision
// candle included. This slice is the only data prediction code may see.
func (p Period) InputCandles() []core.Candle {
	return p.candles[: p.signalIdx+1 : p.signalIdx+1]
}

// OutcomeCandles returns the candles inside the outcome window, strictly
// after the signal time.
func (p Period) OutcomeCandles() []core.Candle {
	return p.candles[p.signalIdx+1:]
}

// OutcomePrice is the close at the end of the outcome window.
func (p Period) OutcomePrice() float64 {
	outcome := p.OutcomeCandles()
	return outcome[len(outcome)-1].Close
}

// ActualReturnPct is the realized return from signal close to outcome close.
func (p Period) ActualReturnPct() float64 {
	return (p.OutcomePrice() - p.SignalPrice()) / p.SignalPrice() * 100
}

// MaxGainPct is the best excursion inside the outcome window.
func (p Period) MaxGainPct() float64 {
	signal := p.SignalPrice()
	best := signal
	for _, c := range p.OutcomeCandles() {
		if c.High > best {
			best = c.High
		}
	}
	return (best - signal) / signal * 100
}

// MaxDrawdownPct is the worst excursion inside the outcome window, reported
// as a positive percentage.
func (p Period) MaxDrawdownPct() float64 {
	signal := p.SignalPrice()
	worst := signal
	for _, c := range p.OutcomeCandles() {
		if c.Low < worst {
			worst = c.Low
		}
	}
	return (signal - worst) / signal * 100
}

// GeneratePeriods cuts the candle list into decision points: the first at
// MinCandlesForAnalysis, stepping by SignalFrequencyDays, stopping while a
// full outcome window remains.
func GeneratePeriods(symbol string, candles []core.Candle, cfg Config) []Period {
	cfg = cfg.withDefaults()

	var periods []Period
	for idx := cfg.MinCandlesForAnalysis; idx < len(candles)-cfg.OutcomeWindowDays; idx += cfg.SignalFrequencyDays {
		end := idx + cfg.OutcomeWindowDays + 1
		if end > len(candles) {
			end = len(candles)
		}
		// Full slice expression caps the backing array at the outcome
		// window's end, so nothing later is reachable even by reslicing.
		periods = append(periods, Period{
			symbol:    symbol,
			candles:   candles[:end:end],
			signalIdx: idx,
		})
	}
	return periods
}
