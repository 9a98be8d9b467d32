package pattern

import (
	"testing"

	"github.com/newthinker/compass/internal/core"
)

// srCandles builds 30 flat candles with engineered swings: resistance
// clusters at ~120.5 (2 touches) and 140, support at ~80.25 and 70, with the
// close at 95. The 31st candle is the potential breakout candle.
func srCandles(breakout core.Candle) []core.Candle {
	candles := dailyCandles(flatCloses(30, 95))
	for i := range candles {
		candles[i].High = 100
		candles[i].Low = 90
	}
	candles[5].High = 120
	candles[10].High = 121
	candles[20].High = 140
	candles[7].Low = 80
	candles[13].Low = 80.5
	candles[22].Low = 70

	breakout.Symbol = "BTCUSDT"
	breakout.Interval = core.Interval1d
	breakout.Time = candles[29].Time.AddDate(0, 0, 1)
	return append(candles, breakout)
}

func TestSRBreakResistance(t *testing.T) {
	candles := srCandles(core.Candle{Open: 95, High: 126, Low: 94, Close: 125, Volume: 1000})

	p, err := NewSRBreak().Detect(inputFor(candles))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected resistance breakout, got nil")
	}
	if p.Type != TypeResistanceBreak {
		t.Errorf("Type = %s, want resistance_break", p.Type)
	}
	if p.Direction != core.SentimentBullish {
		t.Errorf("Direction = %s, want bullish", p.Direction)
	}
	if p.TriggerPrice == nil || *p.TriggerPrice != 120.5 {
		t.Errorf("TriggerPrice = %v, want 120.5", p.TriggerPrice)
	}
	if p.Strength != 7 {
		t.Errorf("Strength = %d, want 7 (5 + 2 touches)", p.Strength)
	}
}

func TestSRBreakSupport(t *testing.T) {
	candles := srCandles(core.Candle{Open: 95, High: 96, Low: 74, Close: 75, Volume: 1000})

	p, err := NewSRBreak().Detect(inputFor(candles))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected support breakdown, got nil")
	}
	if p.Type != TypeSupportBreak {
		t.Errorf("Type = %s, want support_break", p.Type)
	}
	if p.Direction != core.SentimentBearish {
		t.Errorf("Direction = %s, want bearish", p.Direction)
	}
	if p.TriggerPrice == nil || *p.TriggerPrice != 80.25 {
		t.Errorf("TriggerPrice = %v, want 80.25", p.TriggerPrice)
	}
	if p.Strength != 7 {
		t.Errorf("Strength = %d, want 7 (5 + 2 touches)", p.Strength)
	}
}

func TestSRBreakNoCross(t *testing.T) {
	candles := srCandles(core.Candle{Open: 95, High: 101, Low: 94, Close: 100, Volume: 1000})

	p, err := NewSRBreak().Detect(inputFor(candles))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil between levels, got %+v", p)
	}
}

func TestBreakStrengthCap(t *testing.T) {
	if got := breakStrength(2); got != 7 {
		t.Errorf("breakStrength(2) = %d, want 7", got)
	}
	if got := breakStrength(9); got != 10 {
		t.Errorf("breakStrength(9) = %d, want capped 10", got)
	}
}
