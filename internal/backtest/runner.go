package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/metrics"
)

// Result is the complete output of one backtest run.
type Result struct {
	Symbol      string             `json:"symbol"`
	Config      Config             `json:"config"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Periods     int                `json:"periods"`
	Validations []ValidationResult `json:"validations"`
	Report      AccuracyReport     `json:"report"`
	Stats       Stats              `json:"stats"`
}

// Runner replays a candle history through a predictor, one decision point
// at a time, and aggregates how the calls fared.
type Runner struct {
	predictor Predictor
	logger    *zap.Logger
	metrics   *metrics.Registry
}

// NewRunner creates a runner. A nil predictor gets the default pipeline;
// metrics may be nil.
func NewRunner(predictor Predictor, reg *metrics.Registry, logger ...*zap.Logger) *Runner {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if predictor == nil {
		predictor = NewPipelinePredictor(nil, nil, l)
	}
	return &Runner{predictor: predictor, logger: l, metrics: reg}
}

// Run executes the backtest over the full candle history. It checks ctx
// between periods so long runs can be cancelled. A prediction error on a
// single period fails the run; the caller chose the history and should
// know it is analyzable.
func (r *Runner) Run(ctx context.Context, candles []core.Candle, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	start := time.Now()

	if len(candles) < cfg.MinCandlesForAnalysis+cfg.OutcomeWindowDays+1 {
		r.recordBacktest("error", start)
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("backtest: need at least %d candles, have %d",
				cfg.MinCandlesForAnalysis+cfg.OutcomeWindowDays+1, len(candles)))
	}

	periods := GeneratePeriods(cfg.Symbol, candles, cfg)
	r.logger.Info("backtest started",
		zap.String("symbol", cfg.Symbol),
		zap.Int("candles", len(candles)),
		zap.Int("periods", len(periods)),
	)

	validator := NewValidator()
	for i, period := range periods {
		select {
		case <-ctx.Done():
			r.recordBacktest("cancelled", start)
			return nil, ctx.Err()
		default:
		}

		pred, err := r.predictor.Predict(ctx, period.InputCandles())
		if err != nil {
			r.recordBacktest("error", start)
			return nil, core.WrapError(core.ErrBacktestFailed,
				fmt.Errorf("period %d at %s: %w", i, period.SignalTime().Format("2006-01-02"), err))
		}

		result := validator.Validate(period, *pred)
		r.logger.Debug("period validated",
			zap.Time("signal_time", period.SignalTime()),
			zap.String("kind", string(pred.Kind)),
			zap.Float64("actual_return_pct", result.ActualReturnPct),
			zap.Bool("correct", result.IsCorrect),
		)
	}

	finished := time.Now()
	result := &Result{
		Symbol:      cfg.Symbol,
		Config:      cfg,
		StartedAt:   start,
		FinishedAt:  finished,
		Periods:     len(periods),
		Validations: validator.Results(),
		Report:      validator.Report(),
		Stats:       ComputeStats(validator.Results(), cfg.OutcomeWindowDays),
	}

	r.recordBacktest("success", start)
	r.logger.Info("backtest finished",
		zap.String("symbol", cfg.Symbol),
		zap.Int("periods", result.Periods),
		zap.Float64("accuracy", result.Report.OverallAccuracy),
		zap.Float64("sharpe", result.Stats.SharpeRatio),
		zap.Duration("elapsed", finished.Sub(start)),
	)
	return result, nil
}

func (r *Runner) recordBacktest(status string, start time.Time) {
	if r.metrics != nil {
		r.metrics.RecordBacktest(status, time.Since(start).Seconds())
	}
}
