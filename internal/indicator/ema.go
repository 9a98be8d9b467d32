package indicator

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
)

// EMA calculates the Exponential Moving Average ending at the last value.
// The recurrence is seeded with the first value and walked over the whole
// slice, so two calls over overlapping windows converge to the same state.
func EMA(values []float64, period int) (float64, error) {
	if len(values) < period {
		return 0, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("ema: need %d values, have %d", period, len(values)))
	}

	multiplier := 2.0 / float64(period+1)
	ema := values[0]
	for _, v := range values[1:] {
		ema = v*multiplier + ema*(1-multiplier)
	}
	return ema, nil
}

// EMASeries calculates a rolling Exponential Moving Average seeded with the
// SMA of the first period values. Returns len(values) - period + 1 values.
// This is the alignment MACD needs; EMA above is the snapshot recurrence.
func EMASeries(values []float64, period int) []float64 {
	if len(values) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(values)-period+1)
	multiplier := 2.0 / float64(period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	result = append(result, ema)

	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		result = append(result, ema)
	}

	return result
}
