package core

import (
	"fmt"
	"math"
	"time"
)

// Market represents a trading market
type Market string

const (
	MarketCrypto      Market = "crypto"
	MarketTraditional Market = "traditional"
)

// Candle intervals
const (
	Interval1m = "1m"
	Interval5m = "5m"
	Interval1h = "1h"
	Interval4h = "4h"
	Interval1d = "1d"
	Interval1w = "1w"
)

// Candle represents one OHLCV bar
type Candle struct {
	Symbol   string    `json:"symbol,omitempty"`
	Interval string    `json:"interval,omitempty"` // "1m", "1h", "1d", "1w"
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Time     time.Time `json:"time"`
}

// Validate rejects malformed bars: non-finite or negative values, or
// open/close outside the [low, high] range. Collectors and codecs call this
// before candles enter the pipeline.
func (c Candle) Validate() error {
	fields := [...]struct {
		name  string
		value float64
	}{
		{"open", c.Open},
		{"high", c.High},
		{"low", c.Low},
		{"close", c.Close},
		{"volume", c.Volume},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return WrapError(ErrInvalidInput, fmt.Errorf("candle %s is not finite", f.name))
		}
		if f.value < 0 {
			return WrapError(ErrInvalidInput, fmt.Errorf("candle %s is negative: %v", f.name, f.value))
		}
	}
	if c.Open < c.Low || c.Open > c.High {
		return WrapError(ErrInvalidInput,
			fmt.Errorf("open %v outside [low %v, high %v]", c.Open, c.Low, c.High))
	}
	if c.Close < c.Low || c.Close > c.High {
		return WrapError(ErrInvalidInput,
			fmt.Errorf("close %v outside [low %v, high %v]", c.Close, c.Low, c.High))
	}
	return nil
}

// Quote represents a real-time price quote
type Quote struct {
	Symbol        string    `json:"symbol"`
	Market        Market    `json:"market"`
	Price         float64   `json:"price"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PrevClose     float64   `json:"prev_close"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        float64   `json:"volume"`
	Bid           float64   `json:"bid"`
	Ask           float64   `json:"ask"`
	Time          time.Time `json:"time"`
	Source        string    `json:"source"`
}

// IsValid checks if the quote has required fields
func (q Quote) IsValid() bool {
	return q.Symbol != "" && q.Price > 0
}

// SignalKind represents a trading recommendation
type SignalKind string

const (
	KindStrongBuy  SignalKind = "strong_buy"
	KindBuy        SignalKind = "buy"
	KindHold       SignalKind = "hold"
	KindSell       SignalKind = "sell"
	KindStrongSell SignalKind = "strong_sell"
)

// IsBuy reports whether the kind recommends entering long.
func (k SignalKind) IsBuy() bool {
	return k == KindBuy || k == KindStrongBuy
}

// IsSell reports whether the kind recommends exiting or shorting.
func (k SignalKind) IsSell() bool {
	return k == KindSell || k == KindStrongSell
}

// Sentiment describes the lean of a score or component
type Sentiment string

const (
	SentimentBullish         Sentiment = "bullish"
	SentimentSlightlyBullish Sentiment = "slightly_bullish"
	SentimentNeutral         Sentiment = "neutral"
	SentimentSlightlyBearish Sentiment = "slightly_bearish"
	SentimentBearish         Sentiment = "bearish"
)

// Direction is the price direction a pattern implies
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// RiskLevel grades how exposed a position taken on a reading would be
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskExtreme RiskLevel = "extreme"
)

// Outcome is the resolved result of a signal after its evaluation window
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
	OutcomeFlat    Outcome = "flat"
)

// OutcomeThresholdPct is the move required to resolve a signal win or loss.
const OutcomeThresholdPct = 2.0

// ResolveOutcome maps an evaluation-window return to an outcome for a signal
// leaning in the given direction. Bullish signals win on moves >= +2%, lose
// on <= -2%; bearish signals the reverse; anything between is flat.
func ResolveOutcome(dir Direction, returnPct float64) Outcome {
	favorable := returnPct
	if dir == DirectionDown {
		favorable = -returnPct
	}
	switch {
	case favorable >= OutcomeThresholdPct:
		return OutcomeWin
	case favorable <= -OutcomeThresholdPct:
		return OutcomeLoss
	default:
		return OutcomeFlat
	}
}

// Signal represents an emitted recommendation
type Signal struct {
	ID          string         `json:"id"`
	Symbol      string         `json:"symbol"`
	Kind        SignalKind     `json:"kind"`
	Score       float64        `json:"score"`      // 0-100 composite
	Confidence  float64        `json:"confidence"` // 0-100
	Price       float64        `json:"price"`      // Price at signal generation
	Reason      string         `json:"reason"`
	Source      string         `json:"source"` // "composite", "pattern:golden_cross", ...
	Metadata    map[string]any `json:"metadata,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Direction returns the price direction the signal leans toward.
// Hold signals lean up; a flat outcome is the expected resolution for them.
func (s Signal) Direction() Direction {
	if s.Kind.IsSell() {
		return DirectionDown
	}
	return DirectionUp
}
