package pattern

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
)

// TrendStreak fires after a run of consecutive same-direction closes ending
// at the latest candle. A flat close ends the run.
type TrendStreak struct {
	minDays int
}

// NewTrendStreak creates the detector requiring a 5-day run.
func NewTrendStreak() *TrendStreak {
	return &TrendStreak{minDays: 5}
}

func (t *TrendStreak) Name() string {
	return "trend_streak"
}

func (t *TrendStreak) Detect(in Input) (*Pattern, error) {
	closes := in.Series.Closes()
	if len(closes) < 10 {
		return nil, nil
	}

	upDays, downDays := 0, 0
	var totalChange float64

	for i := len(closes) - 1; i > 0; i-- {
		change := closes[i] - closes[i-1]
		if change > 0 {
			if downDays > 0 {
				break
			}
			upDays++
			totalChange += change
		} else if change < 0 {
			if upDays > 0 {
				break
			}
			downDays++
			totalChange += change
		} else {
			break
		}
	}

	if upDays >= t.minDays {
		pct := totalChange / closes[len(closes)-1-upDays] * 100
		return &Pattern{
			Type:        TypeTrendUp,
			Name:        fmt.Sprintf("%d-Day Uptrend", upDays),
			Direction:   core.SentimentBullish,
			Strength:    streakStrength(upDays),
			Description: fmt.Sprintf("%d consecutive up days (+%.1f%%)", upDays, pct),
		}, nil
	}

	if downDays >= t.minDays {
		pct := totalChange / closes[len(closes)-1-downDays] * 100
		return &Pattern{
			Type:        TypeTrendDown,
			Name:        fmt.Sprintf("%d-Day Downtrend", downDays),
			Direction:   core.SentimentBearish,
			Strength:    streakStrength(downDays),
			Description: fmt.Sprintf("%d consecutive down days (%.1f%%)", downDays, pct),
		}, nil
	}

	return nil, nil
}

func streakStrength(days int) int {
	s := 4 + days/2
	if s > 8 {
		s = 8
	}
	return s
}
