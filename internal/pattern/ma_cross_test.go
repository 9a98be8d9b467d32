package pattern

import (
	"testing"

	"github.com/newthinker/compass/internal/core"
)

func TestMACrossGolden(t *testing.T) {
	closes := flatCloses(220, 100)
	closes[218] = 99
	closes[219] = 110

	p, err := NewMACross().Detect(inputFor(dailyCandles(closes)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected golden cross, got nil")
	}
	if p.Type != TypeGoldenCross {
		t.Errorf("Type = %s, want golden_cross", p.Type)
	}
	if p.Direction != core.SentimentBullish {
		t.Errorf("Direction = %s, want bullish", p.Direction)
	}
	if p.Strength != 8 {
		t.Errorf("Strength = %d, want 8", p.Strength)
	}
}

func TestMACrossDeath(t *testing.T) {
	closes := flatCloses(220, 100)
	closes[218] = 101
	closes[219] = 90

	p, err := NewMACross().Detect(inputFor(dailyCandles(closes)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected death cross, got nil")
	}
	if p.Type != TypeDeathCross {
		t.Errorf("Type = %s, want death_cross", p.Type)
	}
	if p.Direction != core.SentimentBearish {
		t.Errorf("Direction = %s, want bearish", p.Direction)
	}
}

func TestMACrossGoldenFromEquality(t *testing.T) {
	// Both SMAs identical yesterday; the cross still fires on today's move.
	closes := flatCloses(220, 100)
	closes[219] = 110

	p, err := NewMACross().Detect(inputFor(dailyCandles(closes)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected golden cross from exact SMA equality, got nil")
	}
	if p.Type != TypeGoldenCross {
		t.Errorf("Type = %s, want golden_cross", p.Type)
	}
}

func TestMACrossDeathFromEquality(t *testing.T) {
	closes := flatCloses(220, 100)
	closes[219] = 90

	p, err := NewMACross().Detect(inputFor(dailyCandles(closes)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected death cross from exact SMA equality, got nil")
	}
	if p.Type != TypeDeathCross {
		t.Errorf("Type = %s, want death_cross", p.Type)
	}
}

func TestMACrossSustainedStateSilent(t *testing.T) {
	// Fast already above slow on both days: no new cross, no signal.
	closes := flatCloses(220, 100)
	for i := 160; i < 220; i++ {
		closes[i] = 110
	}

	p, err := NewMACross().Detect(inputFor(dailyCandles(closes)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for sustained state, got %+v", p)
	}
}

func TestMACrossShortSeries(t *testing.T) {
	p, err := NewMACross().Detect(inputFor(dailyCandles(flatCloses(200, 100))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil below the history floor, got %+v", p)
	}
}
