// Package pattern detects chart patterns on a candle series and annotates
// them with the symbol's past outcomes for the same pattern type.
package pattern

import (
	"time"

	"github.com/newthinker/compass/internal/core"
)

// Type identifies a pattern.
type Type string

const (
	TypeGoldenCross     Type = "golden_cross"
	TypeDeathCross      Type = "death_cross"
	TypeRSIOversold     Type = "rsi_oversold"
	TypeRSIOverbought   Type = "rsi_overbought"
	TypeTrendUp         Type = "trend_up"
	TypeTrendDown       Type = "trend_down"
	TypeDoubleTop       Type = "double_top"
	TypeDoubleBottom    Type = "double_bottom"
	TypeBollingerUp     Type = "bb_breakout_up"
	TypeBollingerDown   Type = "bb_breakout_down"
	TypeResistanceBreak Type = "resistance_break"
	TypeSupportBreak    Type = "support_break"
	TypeHigherHighs     Type = "higher_highs"
	TypeLowerLows       Type = "lower_lows"
)

// Pattern is one detected occurrence. Strength runs 1 to 10.
type Pattern struct {
	Type         Type           `json:"type"`
	Name         string         `json:"name"`
	Direction    core.Sentiment `json:"direction"`
	Strength     int            `json:"strength"`
	Description  string         `json:"description"`
	CurrentPrice float64        `json:"current_price"`
	TriggerPrice *float64       `json:"trigger_price,omitempty"`
	TargetPrice  *float64       `json:"target_price,omitempty"`
	History      *History       `json:"history,omitempty"`
	Time         time.Time      `json:"time"`
}

// History summarizes how this pattern type played out for the symbol in the
// past. LastReturnPct is the forward return after the most recent occurrence
// over ReturnWindowDays; WinRate and AvgReturnPct aggregate the 30-day
// outcomes of all known occurrences.
type History struct {
	Occurrences      int      `json:"occurrences"`
	DaysSinceLast    int      `json:"days_since_last"`
	LastReturnPct    *float64 `json:"last_return_pct,omitempty"`
	ReturnWindowDays int      `json:"return_window_days"`
	WinRate          *float64 `json:"win_rate,omitempty"`
	AvgReturnPct     *float64 `json:"avg_return_pct,omitempty"`
}

// Occurrence is one past firing of a pattern type, with forward returns at
// the standard horizons where the outcome window has already closed.
type Occurrence struct {
	Time      time.Time
	Return1d  *float64
	Return7d  *float64
	Return30d *float64
	Return90d *float64
}

func f64(v float64) *float64 { return &v }
