package indicator

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
)

// MACD calculates the MACD line, signal line and histogram.
// Requires slow+signalPeriod values. The fast and slow EMA series are
// aligned by their start offset before subtraction. All three results are
// rounded to 4 decimals; an exact zero histogram is a real value.
func MACD(values []float64, fast, slow, signalPeriod int) (line, signal, histogram float64, err error) {
	if len(values) < slow+signalPeriod {
		return 0, 0, 0, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("macd: need %d values, have %d", slow+signalPeriod, len(values)))
	}

	emaFast := EMASeries(values, fast)
	emaSlow := EMASeries(values, slow)

	// emaFast starts (slow-fast) values earlier than emaSlow
	offset := slow - fast
	macdSeries := make([]float64, len(emaSlow))
	for i := range emaSlow {
		macdSeries[i] = emaFast[i+offset] - emaSlow[i]
	}

	line = macdSeries[len(macdSeries)-1]
	signal, err = EMA(macdSeries, signalPeriod)
	if err != nil {
		return 0, 0, 0, err
	}
	histogram = line - signal

	return round4(line), round4(signal), round4(histogram), nil
}
