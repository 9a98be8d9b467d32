package pattern

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
)

// BollingerBreak fires on the transition candle where the close crosses a
// Bollinger band: previous close inside, current close outside.
type BollingerBreak struct{}

// NewBollingerBreak creates the detector.
func NewBollingerBreak() *BollingerBreak {
	return &BollingerBreak{}
}

func (b *BollingerBreak) Name() string {
	return "bollinger_break"
}

func (b *BollingerBreak) Detect(in Input) (*Pattern, error) {
	if in.Snapshot == nil || in.Snapshot.BBUpper == nil || in.Snapshot.BBLower == nil {
		return nil, nil
	}
	if in.Series.Len() < 2 {
		return nil, nil
	}

	upper := *in.Snapshot.BBUpper
	lower := *in.Snapshot.BBLower
	current := in.Series.Last().Close
	prev := in.Series.At(in.Series.Len() - 2).Close

	if current > upper && prev <= upper {
		return &Pattern{
			Type:         TypeBollingerUp,
			Name:         "Bollinger Breakout Up",
			Direction:    core.SentimentBullish,
			Strength:     6,
			Description:  fmt.Sprintf("close broke above upper band (%.2f)", upper),
			TriggerPrice: f64(upper),
		}, nil
	}

	if current < lower && prev >= lower {
		return &Pattern{
			Type:         TypeBollingerDown,
			Name:         "Bollinger Breakout Down",
			Direction:    core.SentimentBearish,
			Strength:     6,
			Description:  fmt.Sprintf("close broke below lower band (%.2f)", lower),
			TriggerPrice: f64(lower),
		}, nil
	}

	return nil, nil
}
