package pattern

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/indicator"
)

// MinCandles is the floor below which no detection runs at all.
const MinCandles = 50

// historyLimit caps how many past occurrences feed the statistics.
const historyLimit = 10

// HistoryProvider looks up past occurrences of a pattern type for a symbol,
// most recent first. Lookups are read-only; they never decide whether a
// pattern fires.
type HistoryProvider interface {
	Occurrences(ctx context.Context, symbol string, pattern Type, limit int) ([]Occurrence, error)
}

// Engine runs registered detectors in registration order, so results are
// deterministic for a given input.
type Engine struct {
	mu        sync.RWMutex
	detectors []Detector
	history   HistoryProvider
	logger    *zap.Logger
}

// NewEngine creates an empty engine.
func NewEngine(logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{logger: l}
}

// DefaultEngine returns an engine with the standard detectors registered.
func DefaultEngine(logger ...*zap.Logger) *Engine {
	e := NewEngine(logger...)
	e.Register(NewMACross())
	e.Register(NewRSIExtreme())
	e.Register(NewTrendStreak())
	e.Register(NewDoubleExtreme())
	e.Register(NewBollingerBreak())
	e.Register(NewSRBreak())
	e.Register(NewSwingTrend())
	return e
}

// Register appends a detector. A detector with a name already registered
// replaces the earlier one in place.
func (e *Engine) Register(d Detector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.detectors {
		if existing.Name() == d.Name() {
			e.detectors[i] = d
			return
		}
	}
	e.detectors = append(e.detectors, d)
}

// Get retrieves a detector by name.
func (e *Engine) Get(name string) (Detector, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, d := range e.detectors {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// Names lists registered detectors in run order.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.detectors))
	for i, d := range e.detectors {
		names[i] = d.Name()
	}
	return names
}

// SetHistory attaches the provider used to annotate detected patterns with
// past outcomes.
func (e *Engine) SetHistory(p HistoryProvider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = p
}

// DetectAll runs every detector over the input. A detector error is logged
// and skipped; a short series yields no patterns rather than an error.
func (e *Engine) DetectAll(ctx context.Context, in Input) ([]Pattern, error) {
	if in.Series == nil || in.Series.Len() < MinCandles {
		n := 0
		if in.Series != nil {
			n = in.Series.Len()
		}
		e.logger.Warn("not enough candles for pattern detection",
			zap.Int("have", n),
			zap.Int("need", MinCandles),
		)
		return nil, nil
	}

	if in.Snapshot == nil {
		snap, err := indicator.ComputeSnapshot(in.Series, indicator.DefaultConfig())
		if err != nil {
			return nil, core.WrapError(core.ErrAnalysisFailed, err)
		}
		in.Snapshot = snap
	}

	e.mu.RLock()
	detectors := make([]Detector, len(e.detectors))
	copy(detectors, e.detectors)
	history := e.history
	e.mu.RUnlock()

	last := in.Series.Last()

	var patterns []Pattern
	for _, d := range detectors {
		select {
		case <-ctx.Done():
			return patterns, ctx.Err()
		default:
		}

		p, err := d.Detect(in)
		if err != nil {
			e.logger.Warn("pattern detection failed",
				zap.String("detector", d.Name()),
				zap.Error(err),
			)
			continue
		}
		if p == nil {
			continue
		}

		p.CurrentPrice = last.Close
		p.Time = last.Time

		if history != nil {
			e.annotate(ctx, history, in.Series.Symbol, p)
		}

		patterns = append(patterns, *p)
	}

	return patterns, nil
}

// annotate fills p.History from past occurrences. Failures are logged only;
// the pattern stands without statistics.
func (e *Engine) annotate(ctx context.Context, provider HistoryProvider, symbol string, p *Pattern) {
	window := statWindowDays(p.Type)
	if window == 0 {
		return
	}

	occ, err := provider.Occurrences(ctx, symbol, p.Type, historyLimit)
	if err != nil {
		e.logger.Warn("pattern history lookup failed",
			zap.String("symbol", symbol),
			zap.String("pattern", string(p.Type)),
			zap.Error(err),
		)
		return
	}

	p.History = buildHistory(p.Time, occ, window, p.Direction)
}

// statWindowDays maps a pattern type to the horizon shown for its last
// occurrence. Structural swing patterns carry no statistics.
func statWindowDays(t Type) int {
	switch t {
	case TypeGoldenCross, TypeDeathCross, TypeDoubleTop, TypeDoubleBottom:
		return 30
	case TypeHigherHighs, TypeLowerLows:
		return 0
	default:
		return 7
	}
}

// buildHistory computes the occurrence statistics. Win rate counts positive
// 30-day returns for bullish patterns and negative ones for bearish.
func buildHistory(now time.Time, occ []Occurrence, window int, dir core.Sentiment) *History {
	if len(occ) == 0 {
		return nil
	}

	last := occ[0]
	h := &History{
		Occurrences:      len(occ),
		DaysSinceLast:    int(now.Sub(last.Time).Hours() / 24),
		ReturnWindowDays: window,
	}

	switch window {
	case 30:
		h.LastReturnPct = last.Return30d
	default:
		h.LastReturnPct = last.Return7d
	}

	var returns30 []float64
	for _, o := range occ {
		if o.Return30d != nil {
			returns30 = append(returns30, *o.Return30d)
		}
	}
	if len(returns30) == 0 {
		return h
	}

	wins := 0
	var sum float64
	for _, r := range returns30 {
		sum += r
		if dir == core.SentimentBullish && r > 0 {
			wins++
		}
		if dir == core.SentimentBearish && r < 0 {
			wins++
		}
	}
	h.WinRate = f64(float64(wins) / float64(len(returns30)) * 100)
	h.AvgReturnPct = f64(sum / float64(len(returns30)))
	return h
}
