package pattern

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
)

// DoubleExtreme fires on a completed double top or double bottom within the
// last 30 candles: two extremes within 3% of each other, one per half of the
// window, with the close already past the neckline between them. The target
// projects the pattern height beyond the neckline.
type DoubleExtreme struct {
	window    int
	tolerance float64
}

// NewDoubleExtreme creates the detector with a 30-candle window and 3%
// extreme tolerance.
func NewDoubleExtreme() *DoubleExtreme {
	return &DoubleExtreme{window: 30, tolerance: 0.03}
}

func (d *DoubleExtreme) Name() string {
	return "double_extreme"
}

func (d *DoubleExtreme) Detect(in Input) (*Pattern, error) {
	if in.Series.Len() < d.window {
		return nil, nil
	}

	tail := in.Series.Tail(d.window)
	highs := tail.Highs()
	lows := tail.Lows()
	price := tail.Last().Close
	half := d.window / 2

	// Double top: one peak per half, within tolerance, close below the
	// lowest low strictly between the peaks. Adjacent peaks leave no
	// neckline and never form the pattern.
	top1 := argMax(highs[:half])
	top2 := half + argMax(highs[half:])
	if top2 > top1+1 && diffPct(highs[top1], highs[top2]) < d.tolerance {
		neckline := minOf(lows[top1+1 : top2])
		if price < neckline {
			return &Pattern{
				Type:         TypeDoubleTop,
				Name:         "Double Top",
				Direction:    core.SentimentBearish,
				Strength:     7,
				Description:  fmt.Sprintf("double top near %.2f, neckline %.2f broken", highs[top1], neckline),
				TriggerPrice: f64(neckline),
				TargetPrice:  f64(neckline - (highs[top1] - neckline)),
			}, nil
		}
	}

	// Double bottom: mirrored with the close above the highest high
	// strictly between the troughs.
	bot1 := argMin(lows[:half])
	bot2 := half + argMin(lows[half:])
	if bot2 > bot1+1 && diffPct(lows[bot1], lows[bot2]) < d.tolerance {
		neckline := maxOf(highs[bot1+1 : bot2])
		if price > neckline {
			return &Pattern{
				Type:         TypeDoubleBottom,
				Name:         "Double Bottom",
				Direction:    core.SentimentBullish,
				Strength:     7,
				Description:  fmt.Sprintf("double bottom near %.2f, neckline %.2f broken", lows[bot1], neckline),
				TriggerPrice: f64(neckline),
				TargetPrice:  f64(neckline + (neckline - lows[bot1])),
			}, nil
		}
	}

	return nil, nil
}

func diffPct(a, b float64) float64 {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d / a
}

func argMax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func argMin(values []float64) int {
	best := 0
	for i, v := range values {
		if v < values[best] {
			best = i
		}
	}
	return best
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
