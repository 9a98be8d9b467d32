package pattern

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/level"
)

// SRBreak fires on the transition candle crossing the nearest resistance or
// support cluster. Levels are anchored at the candle before the cross, so a
// level can actually be pierced by the latest close. Strength grows with the
// cluster's touch count.
type SRBreak struct {
	lookback int
}

// NewSRBreak creates the detector with a 60-candle level lookback.
func NewSRBreak() *SRBreak {
	return &SRBreak{lookback: 60}
}

func (s *SRBreak) Name() string {
	return "sr_break"
}

func (s *SRBreak) Detect(in Input) (*Pattern, error) {
	if in.Series.Len() < 2 {
		return nil, nil
	}

	cfg := level.DefaultConfig()
	cfg.Lookback = s.lookback
	set, err := level.Find(in.Series.Slice(0, in.Series.Len()-1), cfg)
	if err != nil {
		return nil, err
	}

	current := in.Series.Last().Close
	prev := in.Series.At(in.Series.Len() - 2).Close

	if res := set.NearestResistance; res != nil && prev < res.Price && current > res.Price {
		return &Pattern{
			Type:      TypeResistanceBreak,
			Name:      "Resistance Breakout",
			Direction: core.SentimentBullish,
			Strength:  breakStrength(res.Touches),
			Description: fmt.Sprintf("broke resistance at %.2f (%d touches)",
				res.Price, res.Touches),
			TriggerPrice: f64(res.Price),
		}, nil
	}

	if sup := set.NearestSupport; sup != nil && prev > sup.Price && current < sup.Price {
		return &Pattern{
			Type:      TypeSupportBreak,
			Name:      "Support Breakdown",
			Direction: core.SentimentBearish,
			Strength:  breakStrength(sup.Touches),
			Description: fmt.Sprintf("broke support at %.2f (%d touches)",
				sup.Price, sup.Touches),
			TriggerPrice: f64(sup.Price),
		}, nil
	}

	return nil, nil
}

func breakStrength(touches int) int {
	s := 5 + touches
	if s > 10 {
		s = 10
	}
	return s
}
