// Package scoring fuses per-subsystem readings into one 0-100 composite
// score. Missing inputs exclude their component and the weighted average
// renormalizes over what is present; nothing is substituted with a neutral
// value.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/cycle"
	"github.com/newthinker/compass/internal/indicator"
	"github.com/newthinker/compass/internal/pattern"
)

// Component names.
const (
	ComponentTechnical   = "technical"
	ComponentPatterns    = "patterns"
	ComponentCycle       = "cycle"
	ComponentDerivatives = "derivatives"
	ComponentFearGreed   = "fear_greed"
	ComponentOnchain     = "onchain"
)

// Weights holds the relative weight of each component in the composite.
type Weights struct {
	Technical   float64 `mapstructure:"technical"`
	Patterns    float64 `mapstructure:"patterns"`
	Cycle       float64 `mapstructure:"cycle"`
	Derivatives float64 `mapstructure:"derivatives"`
	FearGreed   float64 `mapstructure:"fear_greed"`
	Onchain     float64 `mapstructure:"onchain"`
}

// DefaultWeights returns the standard component weights.
func DefaultWeights() Weights {
	return Weights{
		Technical:   0.30,
		Patterns:    0.20,
		Cycle:       0.15,
		Derivatives: 0.15,
		FearGreed:   0.10,
		Onchain:     0.10,
	}
}

// Derivatives carries the futures-market inputs. Fields are typed absences;
// a nil field disables the rules that need it.
type Derivatives struct {
	FundingRatePct *float64 `json:"funding_rate_pct,omitempty"`
	LongShortRatio *float64 `json:"long_short_ratio,omitempty"`
}

// Onchain carries the on-chain inputs.
type Onchain struct {
	MVRV                *float64 `json:"mvrv,omitempty"`
	ReserveChange30dPct *float64 `json:"reserve_change_30d_pct,omitempty"`
}

// Input is everything a composite score can draw on. Every field except
// Symbol is optional; absent subsystems are excluded from the average.
// Patterns distinguishes "detection ran, nothing fired" (empty slice, scores
// neutral) from "detection never ran" (nil, component excluded).
type Input struct {
	Symbol      string
	Snapshot    *indicator.Snapshot
	Patterns    []pattern.Pattern
	Cycle       *cycle.Info
	FearGreed   *float64
	Derivatives *Derivatives
	Onchain     *Onchain
	Time        time.Time
}

// Component is one subsystem's contribution to the composite.
type Component struct {
	Name      string         `json:"name"`
	Score     float64        `json:"score"`
	Weight    float64        `json:"weight"`
	Sentiment core.Sentiment `json:"sentiment"`
	Detail    string         `json:"detail,omitempty"`
}

// Score is the fused result.
type Score struct {
	Symbol     string          `json:"symbol"`
	Score      float64         `json:"score"` // 0-100, higher is more bullish
	Kind       core.SignalKind `json:"kind"`
	Sentiment  core.Sentiment  `json:"sentiment"`
	Confidence float64         `json:"confidence"` // 0-100
	Risk       core.RiskLevel  `json:"risk"`
	Components []Component     `json:"components"`
	Time       time.Time       `json:"time"`
}

// Engine computes composite scores with a fixed weight set.
type Engine struct {
	weights Weights
}

// NewEngine creates a scoring engine. Zero weights fall back to defaults.
func NewEngine(weights Weights) *Engine {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Engine{weights: weights}
}

// Compute fuses the present components into a composite score. It returns
// ErrInsufficientData when no component is present at all.
func (e *Engine) Compute(in Input) (*Score, error) {
	var components []Component

	if c := technicalComponent(in.Snapshot, e.weights.Technical); c != nil {
		components = append(components, *c)
	}
	if c := patternsComponent(in.Patterns, e.weights.Patterns); c != nil {
		components = append(components, *c)
	}
	if c := cycleComponent(in.Cycle, e.weights.Cycle); c != nil {
		components = append(components, *c)
	}
	if c := derivativesComponent(in.Derivatives, e.weights.Derivatives); c != nil {
		components = append(components, *c)
	}
	if c := fearGreedComponent(in.FearGreed, e.weights.FearGreed); c != nil {
		components = append(components, *c)
	}
	if c := onchainComponent(in.Onchain, e.weights.Onchain); c != nil {
		components = append(components, *c)
	}

	if len(components) == 0 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("scoring: no components present for %s", in.Symbol))
	}

	var weighted, totalWeight float64
	for _, c := range components {
		weighted += c.Score * c.Weight
		totalWeight += c.Weight
	}
	composite := clamp(weighted/totalWeight, 0, 100)

	kind, sentiment := band(composite)

	when := in.Time
	if when.IsZero() {
		when = time.Now()
	}

	return &Score{
		Symbol:     in.Symbol,
		Score:      round2(composite),
		Kind:       kind,
		Sentiment:  sentiment,
		Confidence: confidence(components),
		Risk:       riskLevel(composite),
		Components: components,
		Time:       when,
	}, nil
}

// band maps the composite to the signal kind and sentiment. Boundaries:
// >=70 strong buy, >=55 buy, >=46 hold, >=31 sell, else strong sell.
func band(score float64) (core.SignalKind, core.Sentiment) {
	switch {
	case score >= 70:
		return core.KindStrongBuy, core.SentimentBullish
	case score >= 55:
		return core.KindBuy, core.SentimentSlightlyBullish
	case score >= 46:
		return core.KindHold, core.SentimentNeutral
	case score >= 31:
		return core.KindSell, core.SentimentSlightlyBearish
	default:
		return core.KindStrongSell, core.SentimentBearish
	}
}

// confidence is the share of non-neutral components agreeing with the
// majority lean, or 50 when every component is neutral.
func confidence(components []Component) float64 {
	bullish, bearish := 0, 0
	for _, c := range components {
		switch c.Sentiment {
		case core.SentimentBullish:
			bullish++
		case core.SentimentBearish:
			bearish++
		}
	}
	nonNeutral := bullish + bearish
	if nonNeutral == 0 {
		return 50
	}
	majority := bullish
	if bearish > majority {
		majority = bearish
	}
	return round2(float64(majority) / float64(nonNeutral) * 100)
}

func riskLevel(composite float64) core.RiskLevel {
	risk := 100 - composite
	switch {
	case risk > 70:
		return core.RiskHigh
	case risk > 40:
		return core.RiskMedium
	default:
		return core.RiskLow
	}
}

// componentSentiment grades one component score: >=60 bullish, <=40 bearish.
func componentSentiment(score float64) core.Sentiment {
	switch {
	case score >= 60:
		return core.SentimentBullish
	case score <= 40:
		return core.SentimentBearish
	default:
		return core.SentimentNeutral
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
