package indicator

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
)

// SMA calculates the Simple Moving Average over the last period values.
func SMA(values []float64, period int) (float64, error) {
	if len(values) < period {
		return 0, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("sma: need %d values, have %d", period, len(values)))
	}

	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// SMASeries calculates a rolling Simple Moving Average.
// Returns slice of length: len(values) - period + 1
func SMASeries(values []float64, period int) []float64 {
	if len(values) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(values)-period+1)

	// Calculate first SMA
	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(values); i++ {
		sum = sum - values[i-period] + values[i]
		result = append(result, sum/float64(period))
	}

	return result
}
