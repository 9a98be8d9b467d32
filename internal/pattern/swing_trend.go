package pattern

import "github.com/newthinker/compass/internal/core"

// SwingTrend fires when the last three swing highs rise strictly, or the
// last three swing lows fall strictly. Rising highs win if both hold.
type SwingTrend struct{}

// NewSwingTrend creates the detector.
func NewSwingTrend() *SwingTrend {
	return &SwingTrend{}
}

func (s *SwingTrend) Name() string {
	return "swing_trend"
}

func (s *SwingTrend) Detect(in Input) (*Pattern, error) {
	if in.Series.Len() < 20 {
		return nil, nil
	}

	var swingHighs, swingLows []float64
	for i := 2; i < in.Series.Len()-2; i++ {
		h := in.Series.At(i).High
		if h > in.Series.At(i-1).High && h > in.Series.At(i-2).High &&
			h > in.Series.At(i+1).High && h > in.Series.At(i+2).High {
			swingHighs = append(swingHighs, h)
		}

		l := in.Series.At(i).Low
		if l < in.Series.At(i-1).Low && l < in.Series.At(i-2).Low &&
			l < in.Series.At(i+1).Low && l < in.Series.At(i+2).Low {
			swingLows = append(swingLows, l)
		}
	}

	if n := len(swingHighs); n >= 3 {
		if swingHighs[n-1] > swingHighs[n-2] && swingHighs[n-2] > swingHighs[n-3] {
			return &Pattern{
				Type:        TypeHigherHighs,
				Name:        "Higher Highs",
				Direction:   core.SentimentBullish,
				Strength:    6,
				Description: "three rising swing highs confirm the uptrend",
			}, nil
		}
	}

	if n := len(swingLows); n >= 3 {
		if swingLows[n-1] < swingLows[n-2] && swingLows[n-2] < swingLows[n-3] {
			return &Pattern{
				Type:        TypeLowerLows,
				Name:        "Lower Lows",
				Direction:   core.SentimentBearish,
				Strength:    6,
				Description: "three falling swing lows confirm the downtrend",
			}, nil
		}
	}

	return nil, nil
}
