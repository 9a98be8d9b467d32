package pattern

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
)

// RSIExtreme fires while RSI sits in the oversold or overbought zone.
// Strength steps up one notch in the deeper band.
type RSIExtreme struct {
	oversold   float64
	overbought float64
}

// NewRSIExtreme creates the detector with the 30/70 zones.
func NewRSIExtreme() *RSIExtreme {
	return &RSIExtreme{oversold: 30, overbought: 70}
}

func (r *RSIExtreme) Name() string {
	return "rsi_extreme"
}

func (r *RSIExtreme) Detect(in Input) (*Pattern, error) {
	if in.Snapshot == nil || in.Snapshot.RSI == nil {
		return nil, nil
	}
	rsi := *in.Snapshot.RSI

	if rsi < r.oversold {
		strength := 5
		if rsi < r.oversold-5 {
			strength = 6
		}
		return &Pattern{
			Type:        TypeRSIOversold,
			Name:        "RSI Oversold",
			Direction:   core.SentimentBullish,
			Strength:    strength,
			Description: fmt.Sprintf("RSI at %.1f (oversold zone)", rsi),
		}, nil
	}

	if rsi > r.overbought {
		strength := 5
		if rsi > r.overbought+5 {
			strength = 6
		}
		return &Pattern{
			Type:        TypeRSIOverbought,
			Name:        "RSI Overbought",
			Direction:   core.SentimentBearish,
			Strength:    strength,
			Description: fmt.Sprintf("RSI at %.1f (overbought zone)", rsi),
		}, nil
	}

	return nil, nil
}
