package scoring

import (
	"fmt"
	"strings"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/cycle"
	"github.com/newthinker/compass/internal/indicator"
	"github.com/newthinker/compass/internal/pattern"
)

// technicalComponent scores the indicator snapshot from a neutral base of
// 50. Each rule applies only when its own inputs are present.
func technicalComponent(snap *indicator.Snapshot, weight float64) *Component {
	if snap == nil {
		return nil
	}

	score := 50.0
	var notes []string

	if snap.RSI != nil {
		switch rsi := *snap.RSI; {
		case rsi < 30:
			score += 12.5
			notes = append(notes, fmt.Sprintf("RSI oversold (%.1f)", rsi))
		case rsi < 45:
			score += 6
		case rsi > 70:
			score -= 12.5
			notes = append(notes, fmt.Sprintf("RSI overbought (%.1f)", rsi))
		case rsi > 55:
			score -= 6
		}
	}

	if snap.SMA200 != nil {
		if snap.Price > *snap.SMA200 {
			score += 12.5
			notes = append(notes, "above SMA200")
		} else {
			score -= 12.5
			notes = append(notes, "below SMA200")
		}
	}

	if snap.SMA50 != nil && snap.SMA200 != nil {
		if *snap.SMA50 > *snap.SMA200 {
			score += 10
		} else {
			score -= 10
		}
	}

	if snap.MACDHistogram != nil {
		if *snap.MACDHistogram > 0 {
			score += 7.5
			notes = append(notes, "MACD momentum up")
		} else {
			score -= 7.5
			notes = append(notes, "MACD momentum down")
		}
	}

	if snap.BBPosition != nil {
		switch pos := *snap.BBPosition; {
		case pos < 20:
			score += 7.5
			notes = append(notes, "near lower Bollinger band")
		case pos > 80:
			score -= 7.5
			notes = append(notes, "near upper Bollinger band")
		}
	}

	score = clamp(score, 0, 100)
	return &Component{
		Name:      ComponentTechnical,
		Score:     score,
		Weight:    weight,
		Sentiment: componentSentiment(score),
		Detail:    strings.Join(notes, ", "),
	}
}

// patternsComponent shifts a neutral base by 10 points per net directional
// pattern. A nil slice means detection never ran and excludes the component;
// an empty slice scores neutral.
func patternsComponent(patterns []pattern.Pattern, weight float64) *Component {
	if patterns == nil {
		return nil
	}

	bullish, bearish := 0, 0
	var names []string
	for _, p := range patterns {
		switch p.Direction {
		case core.SentimentBullish:
			bullish++
			names = append(names, string(p.Type))
		case core.SentimentBearish:
			bearish++
			names = append(names, string(p.Type))
		}
	}

	score := clamp(50+float64(bullish-bearish)*10, 0, 100)
	return &Component{
		Name:      ComponentPatterns,
		Score:     score,
		Weight:    weight,
		Sentiment: componentSentiment(score),
		Detail:    strings.Join(names, ", "),
	}
}

// phaseScores maps each cycle phase to a component score. Depressed phases
// score high: they are where long entries historically pay.
var phaseScores = map[cycle.Phase]float64{
	cycle.PhaseCapitulation: 85,
	cycle.PhaseAccumulation: 75,
	cycle.PhaseEarlyBull:    70,
	cycle.PhaseBullRun:      60,
	cycle.PhaseEuphoria:     30,
	cycle.PhaseDistribution: 35,
	cycle.PhaseEarlyBear:    40,
	cycle.PhaseBearMarket:   45,
	cycle.PhaseUnknown:      50,
}

func cycleComponent(info *cycle.Info, weight float64) *Component {
	if info == nil {
		return nil
	}

	score, ok := phaseScores[info.Phase]
	if !ok {
		score = 50
	}
	return &Component{
		Name:      ComponentCycle,
		Score:     score,
		Weight:    weight,
		Sentiment: componentSentiment(score),
		Detail:    fmt.Sprintf("phase %s (%.0f%% confidence)", info.Phase, info.Confidence),
	}
}

// derivativesComponent reads crowd positioning contrarily: heavy longs and
// high funding argue against chasing.
func derivativesComponent(d *Derivatives, weight float64) *Component {
	if d == nil {
		return nil
	}

	score := 50.0
	var notes []string

	if d.FundingRatePct != nil {
		switch fr := *d.FundingRatePct; {
		case fr > 0.05:
			score -= 15
			notes = append(notes, fmt.Sprintf("funding elevated (%.3f%%)", fr))
		case fr < -0.02:
			score += 15
			notes = append(notes, fmt.Sprintf("funding negative (%.3f%%)", fr))
		}
	}

	if d.LongShortRatio != nil {
		switch ls := *d.LongShortRatio; {
		case ls > 1.5:
			score -= 10
			notes = append(notes, fmt.Sprintf("crowd long (%.2f)", ls))
		case ls < 0.67:
			score += 10
			notes = append(notes, fmt.Sprintf("crowd short (%.2f)", ls))
		}
	}

	score = clamp(score, 0, 100)
	return &Component{
		Name:      ComponentDerivatives,
		Score:     score,
		Weight:    weight,
		Sentiment: componentSentiment(score),
		Detail:    strings.Join(notes, ", "),
	}
}

// fearGreedComponent is contrarian: extreme fear scores bullish, extreme
// greed bearish.
func fearGreedComponent(value *float64, weight float64) *Component {
	if value == nil {
		return nil
	}

	var score float64
	switch v := *value; {
	case v < 25:
		score = 80
	case v < 45:
		score = 65
	case v > 75:
		score = 20
	case v > 55:
		score = 35
	default:
		score = 50
	}

	return &Component{
		Name:      ComponentFearGreed,
		Score:     score,
		Weight:    weight,
		Sentiment: componentSentiment(score),
		Detail:    fmt.Sprintf("index %.0f", *value),
	}
}

func onchainComponent(o *Onchain, weight float64) *Component {
	if o == nil {
		return nil
	}

	score := 50.0
	var notes []string

	if o.MVRV != nil {
		switch mvrv := *o.MVRV; {
		case mvrv < 1.0:
			score += 15
			notes = append(notes, fmt.Sprintf("MVRV undervalued (%.2f)", mvrv))
		case mvrv > 3.5:
			score -= 15
			notes = append(notes, fmt.Sprintf("MVRV stretched (%.2f)", mvrv))
		}
	}

	if o.ReserveChange30dPct != nil {
		switch ch := *o.ReserveChange30dPct; {
		case ch < -5:
			score += 10
			notes = append(notes, "exchange reserves draining")
		case ch > 5:
			score -= 10
			notes = append(notes, "exchange reserves building")
		}
	}

	score = clamp(score, 0, 100)
	return &Component{
		Name:      ComponentOnchain,
		Score:     score,
		Weight:    weight,
		Sentiment: componentSentiment(score),
		Detail:    strings.Join(notes, ", "),
	}
}
