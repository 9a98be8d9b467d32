package pattern

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/indicator"
)

// MACross fires on the candle where SMA50 crosses SMA200. A market that is
// merely above or below both averages stays silent.
type MACross struct {
	fastPeriod int
	slowPeriod int
}

// NewMACross creates the detector with the standard 50/200 windows.
func NewMACross() *MACross {
	return &MACross{fastPeriod: 50, slowPeriod: 200}
}

func (m *MACross) Name() string {
	return "ma_cross"
}

func (m *MACross) Detect(in Input) (*Pattern, error) {
	closes := in.Series.Closes()
	if len(closes) < m.slowPeriod+10 {
		return nil, nil
	}

	fastToday, err := indicator.SMA(closes, m.fastPeriod)
	if err != nil {
		return nil, nil
	}
	slowToday, err := indicator.SMA(closes, m.slowPeriod)
	if err != nil {
		return nil, nil
	}

	prev := closes[:len(closes)-1]
	fastPrev, err := indicator.SMA(prev, m.fastPeriod)
	if err != nil {
		return nil, nil
	}
	slowPrev, err := indicator.SMA(prev, m.slowPeriod)
	if err != nil {
		return nil, nil
	}

	if fastPrev <= slowPrev && fastToday > slowToday {
		return &Pattern{
			Type:      TypeGoldenCross,
			Name:      "Golden Cross",
			Direction: core.SentimentBullish,
			Strength:  8,
			Description: fmt.Sprintf("SMA%d (%.2f) crossed above SMA%d (%.2f)",
				m.fastPeriod, fastToday, m.slowPeriod, slowToday),
		}, nil
	}

	if fastPrev >= slowPrev && fastToday < slowToday {
		return &Pattern{
			Type:      TypeDeathCross,
			Name:      "Death Cross",
			Direction: core.SentimentBearish,
			Strength:  8,
			Description: fmt.Sprintf("SMA%d (%.2f) crossed below SMA%d (%.2f)",
				m.fastPeriod, fastToday, m.slowPeriod, slowToday),
		}, nil
	}

	return nil, nil
}
