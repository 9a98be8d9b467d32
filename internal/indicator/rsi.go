package indicator

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
)

// RSI calculates the Relative Strength Index with Wilder smoothing.
// Requires period+1 values. Returns 100 when there are no losses in the
// window. Result is rounded to 2 decimals.
func RSI(values []float64, period int) (float64, error) {
	if len(values) < period+1 {
		return 0, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("rsi: need %d values, have %d", period+1, len(values)))
	}

	n := len(values) - 1
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	// Seed with simple averages of the first period deltas
	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remainder
	for i := period; i < n; i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	return round2(100 - 100/(1+rs)), nil
}
