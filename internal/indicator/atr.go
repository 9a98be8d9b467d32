package indicator

import (
	"fmt"
	"math"

	"github.com/newthinker/compass/internal/core"
)

// ATR calculates the Average True Range as a simple average of the last
// period true ranges. Requires period+1 candles. Rounded to 2 decimals.
func ATR(candles []core.Candle, period int) (float64, error) {
	if len(candles) < period+1 {
		return 0, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("atr: need %d candles, have %d", period+1, len(candles)))
	}

	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		h := candles[i].High
		l := candles[i].Low
		pc := candles[i-1].Close
		tr := math.Max(h-l, math.Max(math.Abs(h-pc), math.Abs(l-pc)))
		trs = append(trs, tr)
	}

	var sum float64
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return round2(sum / float64(period)), nil
}
