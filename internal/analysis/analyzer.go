// Package analysis runs the full pipeline for one symbol: indicator
// snapshot, support/resistance levels, chart patterns, cycle phase, market
// context, composite score, emitted signal. It is the single entry point
// used by the app loop, the API, the CLI and the backtest predictor.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	marketctx "github.com/newthinker/compass/internal/context"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/cycle"
	"github.com/newthinker/compass/internal/indicator"
	"github.com/newthinker/compass/internal/level"
	"github.com/newthinker/compass/internal/metrics"
	"github.com/newthinker/compass/internal/pattern"
	"github.com/newthinker/compass/internal/scoring"
	"github.com/newthinker/compass/internal/storage/signal"
)

// MarketContext is the auxiliary readings fetched for one analysis. Absent
// providers and failed fetches leave nil fields.
type MarketContext struct {
	FearGreed   *marketctx.FearGreed   `json:"fear_greed,omitempty"`
	Derivatives *marketctx.Derivatives `json:"derivatives,omitempty"`
	Onchain     *marketctx.Onchain     `json:"onchain,omitempty"`
}

// Report is the complete analysis of one symbol at one point in time.
// Stages that could not run are nil, never partial placeholders.
type Report struct {
	Symbol   string              `json:"symbol"`
	Time     time.Time           `json:"time"`
	Price    float64             `json:"price"`
	Snapshot *indicator.Snapshot `json:"snapshot"`
	Levels   *level.Set          `json:"levels,omitempty"`
	Patterns []pattern.Pattern   `json:"patterns,omitempty"`
	Cycle    *cycle.Info         `json:"cycle,omitempty"`
	Context  *MarketContext      `json:"context,omitempty"`
	Score    *scoring.Score      `json:"score"`
	Signal   *core.Signal        `json:"signal"`
}

// Providers is the optional market-context sources an analyzer consults.
type Providers struct {
	FearGreed   marketctx.FearGreedProvider
	Derivatives marketctx.DerivativesProvider
	Onchain     marketctx.OnchainProvider
}

// Analyzer orchestrates the pipeline. Store and metrics are optional; a nil
// store skips persistence, a nil registry skips instrumentation.
type Analyzer struct {
	patterns  *pattern.Engine
	scorer    *scoring.Engine
	indCfg    indicator.Config
	levelCfg  level.Config
	providers Providers
	store     signal.Store
	metrics   *metrics.Registry
	logger    *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithProviders attaches market-context providers.
func WithProviders(p Providers) Option {
	return func(a *Analyzer) { a.providers = p }
}

// WithStore attaches a signal store; emitted signals are persisted and the
// pattern engine annotates hits with the symbol's track record.
func WithStore(store signal.Store) Option {
	return func(a *Analyzer) { a.store = store }
}

// WithMetrics attaches a metrics registry.
func WithMetrics(reg *metrics.Registry) Option {
	return func(a *Analyzer) { a.metrics = reg }
}

// WithWeights overrides the composite score weights.
func WithWeights(w scoring.Weights) Option {
	return func(a *Analyzer) { a.scorer = scoring.NewEngine(w) }
}

// WithIndicators overrides the indicator configuration.
func WithIndicators(cfg indicator.Config) Option {
	return func(a *Analyzer) { a.indCfg = cfg }
}

// WithLevels overrides the level detection configuration.
func WithLevels(cfg level.Config) Option {
	return func(a *Analyzer) { a.levelCfg = cfg }
}

// New creates an analyzer with default engines.
func New(logger *zap.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Analyzer{
		patterns: pattern.DefaultEngine(logger),
		scorer:   scoring.NewEngine(scoring.DefaultWeights()),
		indCfg:   indicator.DefaultConfig(),
		levelCfg: level.DefaultConfig(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.store != nil {
		a.patterns.SetHistory(NewStoreHistory(a.store))
	}
	return a
}

// Analyze runs the pipeline over the series. It needs at least the snapshot
// floor of candles; later stages degrade to absence below their own floors.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, series *core.Series) (*Report, error) {
	start := time.Now()

	report, err := a.analyze(ctx, symbol, series)
	status := "success"
	if err != nil {
		status = "error"
	}
	if a.metrics != nil {
		a.metrics.RecordAnalysis(symbol, status, time.Since(start).Seconds())
	}
	return report, err
}

func (a *Analyzer) analyze(ctx context.Context, symbol string, series *core.Series) (*Report, error) {
	if series == nil || series.Len() == 0 {
		return nil, core.WrapError(core.ErrInsufficientData, fmt.Errorf("analyze %s: empty series", symbol))
	}
	last := series.Last()

	snap, err := indicator.ComputeSnapshot(series, a.indCfg)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Symbol:   symbol,
		Time:     last.Time,
		Price:    last.Close,
		Snapshot: snap,
	}

	if series.Len() >= level.MinCandles {
		levels, err := level.Find(series, a.levelCfg)
		if err != nil {
			a.logger.Warn("level detection failed", zap.String("symbol", symbol), zap.Error(err))
		} else {
			report.Levels = levels
		}
	}

	if series.Len() >= pattern.MinCandles {
		detected, err := a.patterns.DetectAll(ctx, pattern.Input{Series: series, Snapshot: snap})
		if err != nil {
			return nil, err
		}
		if detected == nil {
			detected = []pattern.Pattern{}
		}
		report.Patterns = detected
	}

	if series.Interval == core.Interval1d && series.Len() >= cycle.MinDailyCandles {
		report.Cycle = cycle.Classify(cycle.Input{Daily: series, Now: last.Time})
	}

	report.Context = a.fetchContext(ctx, symbol)

	in := scoring.Input{
		Symbol:   symbol,
		Snapshot: snap,
		Patterns: report.Patterns,
		Cycle:    report.Cycle,
		Time:     last.Time,
	}
	if report.Context != nil {
		if fg := report.Context.FearGreed; fg != nil {
			in.FearGreed = &fg.Value
		}
		if d := report.Context.Derivatives; d != nil {
			in.Derivatives = &scoring.Derivatives{
				FundingRatePct: d.FundingRatePct,
				LongShortRatio: d.LongShortRatio,
			}
		}
		if oc := report.Context.Onchain; oc != nil {
			in.Onchain = &scoring.Onchain{
				MVRV:                oc.MVRV,
				ReserveChange30dPct: oc.ReserveChange30dPct,
			}
		}
	}

	score, err := a.scorer.Compute(in)
	if err != nil {
		return nil, err
	}
	report.Score = score
	report.Signal = a.emit(ctx, report)

	return report, nil
}

// fetchContext consults each configured provider. Failures degrade to nil
// readings; scoring excludes the component.
func (a *Analyzer) fetchContext(ctx context.Context, symbol string) *MarketContext {
	if a.providers == (Providers{}) {
		return nil
	}
	mc := &MarketContext{}

	if p := a.providers.FearGreed; p != nil {
		fg, err := p.Current(ctx)
		a.recordProvider("fear_greed", err)
		if err != nil {
			a.logger.Warn("fear & greed fetch failed", zap.Error(err))
		} else {
			mc.FearGreed = fg
		}
	}
	if p := a.providers.Derivatives; p != nil {
		d, err := p.Derivatives(ctx, symbol)
		a.recordProvider("derivatives", err)
		if err != nil {
			a.logger.Warn("derivatives fetch failed", zap.String("symbol", symbol), zap.Error(err))
		} else {
			mc.Derivatives = d
		}
	}
	if p := a.providers.Onchain; p != nil {
		oc, err := p.Onchain(ctx, symbol)
		a.recordProvider("onchain", err)
		if err != nil {
			a.logger.Warn("onchain fetch failed", zap.String("symbol", symbol), zap.Error(err))
		} else {
			mc.Onchain = oc
		}
	}
	return mc
}

func (a *Analyzer) recordProvider(provider string, err error) {
	if a.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordProviderRequest(provider, status)
}

// emit builds the signal from the composite score, persists it and counts
// it. Persistence failures are logged, not fatal: the analysis stands.
func (a *Analyzer) emit(ctx context.Context, report *Report) *core.Signal {
	score := report.Score
	sig := &core.Signal{
		ID:          uuid.NewString(),
		Symbol:      report.Symbol,
		Kind:        score.Kind,
		Score:       score.Score,
		Confidence:  score.Confidence,
		Price:       report.Price,
		Reason:      reason(score.Components),
		Source:      "composite",
		GeneratedAt: score.Time,
	}

	if a.metrics != nil {
		a.metrics.RecordSignal(string(sig.Kind), sig.Source)
	}
	if a.store != nil {
		rec := signal.Record{
			ID:         sig.ID,
			Symbol:     sig.Symbol,
			Source:     sig.Source,
			Kind:       sig.Kind,
			Direction:  sig.Direction(),
			Score:      sig.Score,
			Confidence: sig.Confidence,
			Price:      sig.Price,
			CreatedAt:  sig.GeneratedAt,
		}
		if err := a.store.Save(ctx, rec); err != nil {
			a.logger.Warn("signal save failed", zap.String("id", sig.ID), zap.Error(err))
		}
	}
	return sig
}

// reason joins the component details into a one-line explanation.
func reason(components []scoring.Component) string {
	var parts []string
	for _, c := range components {
		if c.Detail == "" {
			parts = append(parts, fmt.Sprintf("%s %.0f", c.Name, c.Score))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %.0f (%s)", c.Name, c.Score, c.Detail))
	}
	return strings.Join(parts, "; ")
}
