package indicator

import (
	"fmt"
	"time"

	"github.com/newthinker/compass/internal/core"
)

// MinSnapshotCandles is the floor for building a snapshot at all; it covers
// the EMA26 window. Longer-window fields stay absent until their own window
// is satisfiable.
const MinSnapshotCandles = 26

// Config holds the indicator windows used by ComputeSnapshot.
type Config struct {
	SMAFast    int     `mapstructure:"sma_fast"`
	SMAMid     int     `mapstructure:"sma_mid"`
	SMASlow    int     `mapstructure:"sma_slow"`
	EMAFast    int     `mapstructure:"ema_fast"`
	EMASlow    int     `mapstructure:"ema_slow"`
	RSIPeriod  int     `mapstructure:"rsi_period"`
	MACDFast   int     `mapstructure:"macd_fast"`
	MACDSlow   int     `mapstructure:"macd_slow"`
	MACDSignal int     `mapstructure:"macd_signal"`
	BBPeriod   int     `mapstructure:"bb_period"`
	BBMult     float64 `mapstructure:"bb_mult"`
	ATRPeriod  int     `mapstructure:"atr_period"`
	VolPeriod  int     `mapstructure:"volume_period"`
}

// DefaultConfig returns the standard indicator windows.
func DefaultConfig() Config {
	return Config{
		SMAFast:    20,
		SMAMid:     50,
		SMASlow:    200,
		EMAFast:    12,
		EMASlow:    26,
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BBPeriod:   20,
		BBMult:     2.0,
		ATRPeriod:  14,
		VolPeriod:  20,
	}
}

// Snapshot is the full indicator state for one symbol at one point in time.
// Optional fields are nil when their window is not satisfiable; a nil field
// excludes dependent rules downstream instead of defaulting them.
type Snapshot struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	Time     time.Time `json:"time"`
	Price    float64   `json:"price"`

	SMA20  *float64 `json:"sma_20,omitempty"`
	SMA50  *float64 `json:"sma_50,omitempty"`
	SMA200 *float64 `json:"sma_200,omitempty"`
	EMA12  *float64 `json:"ema_12,omitempty"`
	EMA26  *float64 `json:"ema_26,omitempty"`

	RSI *float64 `json:"rsi,omitempty"`

	MACDLine      *float64 `json:"macd_line,omitempty"`
	MACDSignal    *float64 `json:"macd_signal,omitempty"`
	MACDHistogram *float64 `json:"macd_histogram,omitempty"`

	BBUpper    *float64 `json:"bb_upper,omitempty"`
	BBMiddle   *float64 `json:"bb_middle,omitempty"`
	BBLower    *float64 `json:"bb_lower,omitempty"`
	BBPosition *float64 `json:"bb_position,omitempty"`

	ATR *float64 `json:"atr,omitempty"`

	VolumeSMA   *float64 `json:"volume_sma,omitempty"`
	VolumeRatio *float64 `json:"volume_ratio,omitempty"`

	PriceChange24h *float64 `json:"price_change_24h,omitempty"`
	PriceChange7d  *float64 `json:"price_change_7d,omitempty"`
}

// ComputeSnapshot builds a Snapshot from the series using the configured
// windows. Requires MinSnapshotCandles candles.
func ComputeSnapshot(series *core.Series, cfg Config) (*Snapshot, error) {
	if series.Len() < MinSnapshotCandles {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("snapshot: need %d candles, have %d", MinSnapshotCandles, series.Len()))
	}

	closes := series.Closes()
	volumes := series.Volumes()
	last := series.Last()

	snap := &Snapshot{
		Symbol:   series.Symbol,
		Interval: series.Interval,
		Time:     last.Time,
		Price:    last.Close,
	}

	if v, err := SMA(closes, cfg.SMAFast); err == nil {
		snap.SMA20 = f64(round2(v))
	}
	if v, err := SMA(closes, cfg.SMAMid); err == nil {
		snap.SMA50 = f64(round2(v))
	}
	if v, err := SMA(closes, cfg.SMASlow); err == nil {
		snap.SMA200 = f64(round2(v))
	}
	if v, err := EMA(closes, cfg.EMAFast); err == nil {
		snap.EMA12 = f64(round2(v))
	}
	if v, err := EMA(closes, cfg.EMASlow); err == nil {
		snap.EMA26 = f64(round2(v))
	}
	if v, err := RSI(closes, cfg.RSIPeriod); err == nil {
		snap.RSI = f64(v)
	}
	if line, sig, hist, err := MACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal); err == nil {
		snap.MACDLine = f64(line)
		snap.MACDSignal = f64(sig)
		snap.MACDHistogram = f64(hist)
	}
	if bb, err := BollingerBands(closes, cfg.BBPeriod, cfg.BBMult); err == nil {
		snap.BBUpper = f64(bb.Upper)
		snap.BBMiddle = f64(bb.Middle)
		snap.BBLower = f64(bb.Lower)
		snap.BBPosition = f64(bb.Position)
	}
	if v, err := ATR(series.Candles, cfg.ATRPeriod); err == nil {
		snap.ATR = f64(v)
	}
	if v, err := SMA(volumes, cfg.VolPeriod); err == nil {
		volSMA := round2(v)
		snap.VolumeSMA = f64(volSMA)
		if volSMA > 0 {
			snap.VolumeRatio = f64(round2(last.Volume / volSMA))
		}
	}
	if len(closes) >= 2 {
		snap.PriceChange24h = f64(round2(changePct(closes[len(closes)-2], last.Close)))
	}
	if len(closes) >= 8 {
		snap.PriceChange7d = f64(round2(changePct(closes[len(closes)-8], last.Close)))
	}

	return snap, nil
}

func changePct(from, to float64) float64 {
	return (to - from) / from * 100
}

func f64(v float64) *float64 {
	return &v
}
