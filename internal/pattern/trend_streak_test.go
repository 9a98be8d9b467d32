package pattern

import (
	"strings"
	"testing"

	"github.com/newthinker/compass/internal/core"
)

func TestTrendStreakUp(t *testing.T) {
	closes := append(flatCloses(9, 100), 101, 102, 103, 104, 105, 106)

	p, err := NewTrendStreak().Detect(inputFor(dailyCandles(closes)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected uptrend pattern, got nil")
	}
	if p.Type != TypeTrendUp {
		t.Errorf("Type = %s, want trend_up", p.Type)
	}
	if p.Direction != core.SentimentBullish {
		t.Errorf("Direction = %s, want bullish", p.Direction)
	}
	if p.Name != "6-Day Uptrend" {
		t.Errorf("Name = %q, want 6-Day Uptrend", p.Name)
	}
	if p.Strength != 7 {
		t.Errorf("Strength = %d, want 7", p.Strength)
	}
	if !strings.Contains(p.Description, "+6.0%") {
		t.Errorf("Description = %q, want +6.0%% change", p.Description)
	}
}

func TestTrendStreakDown(t *testing.T) {
	closes := append(flatCloses(10, 100), 99, 98, 97, 96, 95)

	p, err := NewTrendStreak().Detect(inputFor(dailyCandles(closes)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected downtrend pattern, got nil")
	}
	if p.Type != TypeTrendDown {
		t.Errorf("Type = %s, want trend_down", p.Type)
	}
	if p.Strength != 6 {
		t.Errorf("Strength = %d, want 6", p.Strength)
	}
	if !strings.Contains(p.Description, "-5.0%") {
		t.Errorf("Description = %q, want -5.0%% change", p.Description)
	}
}

func TestTrendStreakTooShortRun(t *testing.T) {
	closes := append(flatCloses(11, 100), 101, 102, 103, 104)

	p, err := NewTrendStreak().Detect(inputFor(dailyCandles(closes)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for a 4-day run, got %+v", p)
	}
}

func TestTrendStreakFlatCloseEndsRun(t *testing.T) {
	// Five rising closes but the latest is flat: the run ends at zero.
	closes := append(flatCloses(9, 100), 101, 102, 103, 104, 105, 105)

	p, err := NewTrendStreak().Detect(inputFor(dailyCandles(closes)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil when the latest close is flat, got %+v", p)
	}
}

func TestTrendStreakStrengthCap(t *testing.T) {
	if got := streakStrength(5); got != 6 {
		t.Errorf("streakStrength(5) = %d, want 6", got)
	}
	if got := streakStrength(8); got != 8 {
		t.Errorf("streakStrength(8) = %d, want 8", got)
	}
	if got := streakStrength(12); got != 8 {
		t.Errorf("streakStrength(12) = %d, want capped 8", got)
	}
}

func TestTrendStreakShortSeries(t *testing.T) {
	p, err := NewTrendStreak().Detect(inputFor(dailyCandles(flatCloses(9, 100))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil below 10 candles, got %+v", p)
	}
}
