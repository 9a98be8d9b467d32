package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/newthinker/compass/internal/core"
)

func TestSMA_Calculate(t *testing.T) {
	values := []float64{10, 11, 12, 13, 14, 15}

	got, err := SMA(values, 3)
	if err != nil {
		t.Fatalf("SMA() error = %v", err)
	}

	// (13+14+15)/3 = 14
	if got != 14 {
		t.Errorf("SMA(3) = %f, want 14", got)
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	_, err := SMA([]float64{10, 11}, 5)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestSMASeries_Calculate(t *testing.T) {
	values := []float64{10, 11, 12, 13, 14, 15}

	sma := SMASeries(values, 3)

	// SMA(3) for [10,11,12,13,14,15]:
	// [0] = (10+11+12)/3 = 11
	// [1] = (11+12+13)/3 = 12
	// [2] = (12+13+14)/3 = 13
	// [3] = (13+14+15)/3 = 14
	expected := []float64{11, 12, 13, 14}

	if len(sma) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(sma))
	}

	for i, v := range expected {
		if sma[i] != v {
			t.Errorf("sma[%d] = %f, want %f", i, sma[i], v)
		}
	}
}

func TestSMASeries_NotEnoughData(t *testing.T) {
	sma := SMASeries([]float64{10, 11}, 5)

	if len(sma) != 0 {
		t.Errorf("expected empty slice, got %d values", len(sma))
	}
}

func TestEMA_Calculate(t *testing.T) {
	// Seeded with the first value, multiplier 2/(3+1) = 0.5:
	// 10 -> 10.5 -> 11.25 -> 12.125 -> 13.0625 -> 14.03125
	values := []float64{10, 11, 12, 13, 14, 15}

	got, err := EMA(values, 3)
	if err != nil {
		t.Fatalf("EMA() error = %v", err)
	}
	if !almostEqual(got, 14.03125, 1e-9) {
		t.Errorf("EMA(3) = %f, want 14.03125", got)
	}
}

func TestEMA_NotEnoughData(t *testing.T) {
	_, err := EMA([]float64{10, 11}, 5)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEMASeries_Calculate(t *testing.T) {
	values := []float64{10, 11, 12, 13, 14, 15}
	ema := EMASeries(values, 3)

	if len(ema) != 4 {
		t.Fatalf("expected 4 values, got %d", len(ema))
	}

	// First EMA = SMA = 11
	if ema[0] != 11 {
		t.Errorf("first EMA should equal SMA, got %f", ema[0])
	}

	// Subsequent EMAs should trend upward
	for i := 1; i < len(ema); i++ {
		if ema[i] <= ema[i-1] {
			t.Errorf("EMA should be increasing, ema[%d]=%f <= ema[%d]=%f", i, ema[i], i-1, ema[i-1])
		}
	}
}

func TestEMASeries_NotEnoughData(t *testing.T) {
	ema := EMASeries([]float64{10, 11}, 5)

	if len(ema) != 0 {
		t.Errorf("expected empty slice, got %d values", len(ema))
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
