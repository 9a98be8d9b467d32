package indicator

import (
	"fmt"
	"math"

	"github.com/newthinker/compass/internal/core"
)

// Bollinger holds the band values for the last price in a window.
type Bollinger struct {
	Upper    float64 `json:"upper"`
	Middle   float64 `json:"middle"`
	Lower    float64 `json:"lower"`
	Position float64 `json:"position"` // 0-100, location of last price in the band
}

// BollingerBands calculates Bollinger Bands over the last period values
// using the population standard deviation. Band prices are rounded to 2
// decimals, position to 1 and clamped to [0, 100]. When the band has zero
// width the position is 50.
func BollingerBands(values []float64, period int, mult float64) (Bollinger, error) {
	if len(values) < period {
		return Bollinger{}, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("bollinger: need %d values, have %d", period, len(values)))
	}

	window := values[len(values)-period:]

	var sum float64
	for _, v := range window {
		sum += v
	}
	middle := sum / float64(period)

	var variance float64
	for _, v := range window {
		variance += (v - middle) * (v - middle)
	}
	variance /= float64(period)
	std := math.Sqrt(variance)

	upper := middle + mult*std
	lower := middle - mult*std

	current := values[len(values)-1]
	position := 50.0
	if upper != lower {
		position = (current - lower) / (upper - lower) * 100
		position = math.Max(0, math.Min(100, position))
	}

	return Bollinger{
		Upper:    round2(upper),
		Middle:   round2(middle),
		Lower:    round2(lower),
		Position: round1(position),
	}, nil
}
