package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/cycle"
	"github.com/newthinker/compass/internal/indicator"
	"github.com/newthinker/compass/internal/pattern"
	"github.com/newthinker/compass/internal/scoring"
)

// MinPredictionCandles is the hard floor for producing any prediction.
const MinPredictionCandles = 50

// Prediction is one signal produced for a period's decision point.
type Prediction struct {
	Kind       core.SignalKind    `json:"kind"`
	Confidence float64            `json:"confidence"`
	Price      float64            `json:"price"`
	Time       time.Time          `json:"time"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
	Pattern    string             `json:"pattern,omitempty"` // strongest detected pattern
	RawScore   float64            `json:"raw_score"`
}

// Predictor produces a prediction from the candles available at a decision
// point. Implementations must derive everything from the given slice alone.
type Predictor interface {
	Predict(ctx context.Context, candles []core.Candle) (*Prediction, error)
}

// PipelinePredictor runs the production analysis pipeline: indicator
// snapshot, pattern detection, cycle classification when enough history
// exists, composite scoring.
type PipelinePredictor struct {
	patterns *pattern.Engine
	scorer   *scoring.Engine
	indCfg   indicator.Config
	logger   *zap.Logger
}

// NewPipelinePredictor creates a predictor with default engines when nil.
func NewPipelinePredictor(patterns *pattern.Engine, scorer *scoring.Engine, logger ...*zap.Logger) *PipelinePredictor {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if patterns == nil {
		patterns = pattern.DefaultEngine(l)
	}
	if scorer == nil {
		scorer = scoring.NewEngine(scoring.DefaultWeights())
	}
	return &PipelinePredictor{
		patterns: patterns,
		scorer:   scorer,
		indCfg:   indicator.DefaultConfig(),
		logger:   l,
	}
}

// Predict runs the pipeline over the input candles. Below 200 candles the
// analysis is reduced (no SMA200-dependent readings populate); below 50 it
// refuses.
func (p *PipelinePredictor) Predict(ctx context.Context, candles []core.Candle) (*Prediction, error) {
	if len(candles) < MinPredictionCandles {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("predict: need %d candles, have %d", MinPredictionCandles, len(candles)))
	}

	symbol := candles[0].Symbol
	series := core.NewSeries(symbol, core.Interval1d, candles)
	last := series.Last()

	snap, err := indicator.ComputeSnapshot(series, p.indCfg)
	if err != nil {
		return nil, err
	}

	detected, err := p.patterns.DetectAll(ctx, pattern.Input{Series: series, Snapshot: snap})
	if err != nil {
		return nil, err
	}
	if detected == nil {
		detected = []pattern.Pattern{}
	}

	in := scoring.Input{
		Symbol:   symbol,
		Snapshot: snap,
		Patterns: detected,
		Time:     last.Time,
	}
	if series.Len() >= cycle.MinDailyCandles {
		in.Cycle = cycle.Classify(cycle.Input{Daily: series, Now: last.Time})
	}

	score, err := p.scorer.Compute(in)
	if err != nil {
		return nil, err
	}

	return &Prediction{
		Kind:       score.Kind,
		Confidence: score.Confidence,
		Price:      last.Close,
		Time:       last.Time,
		Indicators: indicatorValues(snap),
		Pattern:    strongestPattern(detected),
		RawScore:   score.Score,
	}, nil
}

// indicatorValues flattens the present snapshot fields for reporting.
func indicatorValues(snap *indicator.Snapshot) map[string]float64 {
	out := make(map[string]float64)
	put := func(name string, v *float64) {
		if v != nil {
			out[name] = *v
		}
	}
	put("rsi", snap.RSI)
	put("sma_20", snap.SMA20)
	put("sma_50", snap.SMA50)
	put("sma_200", snap.SMA200)
	put("macd_histogram", snap.MACDHistogram)
	put("bb_position", snap.BBPosition)
	put("atr", snap.ATR)
	put("volume_ratio", snap.VolumeRatio)
	return out
}

func strongestPattern(patterns []pattern.Pattern) string {
	best := ""
	bestStrength := 0
	for _, p := range patterns {
		if p.Strength > bestStrength {
			best = string(p.Type)
			bestStrength = p.Strength
		}
	}
	return best
}
