package dataset

import (
	"math"
	"math/rand"
	"time"

	"github.com/newthinker/compass/internal/core"
)

// Generator synthesizes daily candle series from Gaussian return walks.
// The rand source is injected so scenarios are reproducible.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator. A nil source falls back to a fixed seed
// so the default output is stable.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(42))
	}
	return &Generator{rng: rng}
}

// Bullish produces n daily candles on a rising geometric walk.
func (g *Generator) Bullish(n int) []core.Candle {
	return g.walk(n, 40000, func(i int) (drift, vol float64) {
		return 0.003, 0.02
	})
}

// Bearish produces n daily candles on a falling geometric walk.
func (g *Generator) Bearish(n int) []core.Candle {
	return g.walk(n, 60000, func(i int) (drift, vol float64) {
		return -0.002, 0.02
	})
}

// Sideways produces n daily candles with no drift.
func (g *Generator) Sideways(n int) []core.Candle {
	return g.walk(n, 50000, func(i int) (drift, vol float64) {
		return 0, 0.01
	})
}

// Oversold produces a sharp selloff over the first 30% of the series
// followed by a recovery, the shape that drives RSI deep and back.
func (g *Generator) Oversold(n int) []core.Candle {
	selloff := int(float64(n) * 0.3)
	return g.walk(n, 50000, func(i int) (drift, vol float64) {
		if i < selloff {
			return -0.025, 0.01
		}
		return 0.01, 0.02
	})
}

// GoldenCross produces a downtrend for the first third, consolidation for
// the next sixth, then an uptrend, which walks the SMA50 up through the
// SMA200.
func (g *Generator) GoldenCross(n int) []core.Candle {
	down := n / 3
	flat := down + n/6
	return g.walk(n, 50000, func(i int) (drift, vol float64) {
		switch {
		case i < down:
			return -0.004, 0.015
		case i < flat:
			return 0, 0.01
		default:
			return 0.006, 0.015
		}
	})
}

// walk runs a geometric random walk of daily closes and dresses each close
// with OHLC consistent with it: low <= open, close <= high.
func (g *Generator) walk(n int, base float64, params func(i int) (drift, vol float64)) []core.Candle {
	if n <= 0 {
		return nil
	}

	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -n)
	candles := make([]core.Candle, 0, n)

	price := base
	for i := 0; i < n; i++ {
		drift, vol := params(i)
		price *= 1 + g.rng.NormFloat64()*vol + drift

		open := price * g.uniform(0.995, 1.005)
		high := math.Max(open, price) * g.uniform(1.0, 1.015)
		low := math.Min(open, price) * g.uniform(0.985, 1.0)

		candles = append(candles, core.Candle{
			Interval: core.Interval1d,
			Open:     round2(open),
			High:     round2(high),
			Low:      round2(low),
			Close:    round2(price),
			Volume:   round2(g.uniform(1000, 5000)),
			Time:     start.AddDate(0, 0, i),
		})
	}
	return candles
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
