// Package app wires collectors, the analysis pipeline, signal routing and
// storage into one orchestrator shared by the CLI and the HTTP API. It owns
// the periodic analysis loop and the signal outcome sweep.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newthinker/compass/internal/ai"
	"github.com/newthinker/compass/internal/alert"
	"github.com/newthinker/compass/internal/analysis"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/collector"
	"github.com/newthinker/compass/internal/collector/crypto"
	"github.com/newthinker/compass/internal/collector/yahoo"
	"github.com/newthinker/compass/internal/config"
	marketctx "github.com/newthinker/compass/internal/context"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/cycle"
	"github.com/newthinker/compass/internal/dataset"
	"github.com/newthinker/compass/internal/level"
	"github.com/newthinker/compass/internal/llm/factory"
	"github.com/newthinker/compass/internal/metrics"
	"github.com/newthinker/compass/internal/notifier"
	"github.com/newthinker/compass/internal/notifier/email"
	"github.com/newthinker/compass/internal/notifier/telegram"
	"github.com/newthinker/compass/internal/notifier/webhook"
	"github.com/newthinker/compass/internal/router"
	"github.com/newthinker/compass/internal/storage/archive"
	"github.com/newthinker/compass/internal/storage/signal"
)

// App is the main application orchestrator.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	collectors *collector.Registry
	notifiers  *notifier.Registry
	router     *router.Router
	analyzer   *analysis.Analyzer
	briefer    *ai.Analyzer
	signals    signal.Store
	datasets   *dataset.Loader
	runner     *backtest.Runner
	metrics    *metrics.Registry
	alerts     *alert.Evaluator

	mu        sync.RWMutex
	watchlist []string
	inList    map[string]struct{}
	running   bool
	cancel    context.CancelFunc
	runs      int
	runErrors int
}

// New builds an App from configuration. Every subsystem is wired here:
// collectors, notifiers, the router, context providers, the analyzer, the
// LLM briefer and the dataset archive.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		collectors: collector.NewRegistry(),
		notifiers:  notifier.NewRegistry(),
		signals:    signal.NewMemoryStore(cfg.Storage.SignalCapacity),
		inList:     make(map[string]struct{}),
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}

	if err := a.wireCollectors(); err != nil {
		return nil, err
	}
	if err := a.wireNotifiers(); err != nil {
		return nil, err
	}
	if err := a.wireArchive(); err != nil {
		return nil, err
	}

	a.router = router.New(cfg.Router, a.notifiers, logger)

	opts := []analysis.Option{
		analysis.WithStore(a.signals),
		analysis.WithWeights(cfg.Scoring.Weights),
		analysis.WithIndicators(cfg.Analysis.Indicators),
		analysis.WithLevels(cfg.Analysis.Levels),
	}
	if providers := contextProviders(cfg.Context); providers != (analysis.Providers{}) {
		opts = append(opts, analysis.WithProviders(providers))
	}
	if a.metrics != nil {
		opts = append(opts, analysis.WithMetrics(a.metrics))
	}
	a.analyzer = analysis.New(logger, opts...)

	a.runner = backtest.NewRunner(
		backtest.NewPipelinePredictor(nil, nil, logger), a.metrics, logger)

	if cfg.LLM.Provider != "" {
		provider, err := factory.New(cfg.LLM)
		if err != nil {
			return nil, err
		}
		var macro marketctx.MacroProvider
		if cfg.Context.Macro {
			macro = marketctx.NewMacroClient()
		}
		a.briefer = ai.NewAnalyzer(provider, macro, logger)
	}

	if cfg.Alerts.Enabled {
		a.alerts = alert.NewEvaluator(alertNotifiers(a.notifiers))
		if cfg.Alerts.Cooldown > 0 {
			a.alerts.SetCooldown(cfg.Alerts.Cooldown)
		}
	}

	for _, symbol := range cfg.Symbols() {
		a.addSymbol(symbol)
	}
	a.recordWatchlistSize()

	return a, nil
}

func (a *App) wireCollectors() error {
	ccfg, ok := a.cfg.Collectors["crypto"]
	if !ok || ccfg.Enabled {
		c := crypto.New()
		if err := c.Init(collectorConfig(ccfg)); err != nil {
			return core.WrapError(core.ErrConfigInvalid, err)
		}
		a.collectors.Register(c)
	}

	if ycfg, ok := a.cfg.Collectors["yahoo"]; ok && ycfg.Enabled {
		y := yahoo.New()
		if err := y.Init(collectorConfig(ycfg)); err != nil {
			return core.WrapError(core.ErrConfigInvalid, err)
		}
		a.collectors.Register(y)
	}

	if len(a.collectors.GetAll()) == 0 {
		a.logger.Warn("no collectors enabled")
	}
	return nil
}

// RegisterCollector adds a data collector.
func (a *App) RegisterCollector(c collector.Collector) {
	a.collectors.Register(c)
}

// RegisterNotifier adds a notifier.
func (a *App) RegisterNotifier(n notifier.Notifier) error {
	return a.notifiers.Register(n)
}

func (a *App) wireNotifiers() error {
	for name, ncfg := range a.cfg.Notifiers {
		if !ncfg.Enabled {
			continue
		}
		var n notifier.Notifier
		switch name {
		case "telegram":
			n = telegram.New(ncfg.BotToken, ncfg.ChatID)
		case "webhook":
			n = webhook.New(ncfg.URL, ncfg.Headers)
		case "email":
			n = email.New(ncfg.Host, ncfg.Port, ncfg.Username, ncfg.Password, ncfg.From, ncfg.To)
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown notifier %q", name))
		}
		if err := a.notifiers.Register(n); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) wireArchive() error {
	var (
		storage archive.Storage
		err     error
	)
	switch a.cfg.Storage.Archive.Type {
	case "s3":
		s3 := a.cfg.Storage.Archive.S3
		storage, err = archive.NewS3(archive.S3Config{
			Bucket:    s3.Bucket,
			Endpoint:  s3.Endpoint,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Prefix:    s3.Prefix,
		})
	default:
		storage, err = archive.NewLocalFS(a.cfg.Storage.Archive.Path)
	}
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	a.datasets = dataset.NewLoader(storage)
	return nil
}

func collectorConfig(cfg config.CollectorConfig) collector.Config {
	return collector.Config{
		Enabled:  cfg.Enabled,
		Markets:  cfg.Markets,
		Interval: cfg.Interval,
		APIKey:   cfg.APIKey,
		Extra:    cfg.Extra,
	}
}

func contextProviders(cfg config.ContextConfig) analysis.Providers {
	var p analysis.Providers
	if cfg.FearGreed {
		p.FearGreed = marketctx.NewFearGreedClient()
	}
	if cfg.Derivatives {
		p.Derivatives = marketctx.NewDerivativesClient()
	}
	if cfg.MVRV != nil || cfg.ReserveChange30dPct != nil {
		p.Onchain = marketctx.NewStaticOnchain(cfg.MVRV, cfg.ReserveChange30dPct)
	}
	return p
}

// SignalStore exposes the signal history store.
func (a *App) SignalStore() signal.Store { return a.signals }

// Metrics exposes the metrics registry, nil when metrics are disabled.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// BacktestRunner exposes the configured backtest runner.
func (a *App) BacktestRunner() *backtest.Runner { return a.runner }

// Datasets exposes the dataset loader.
func (a *App) Datasets() *dataset.Loader { return a.datasets }

// Start begins the periodic analysis loop and blocks until ctx is done.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	a.logger.Info("compass starting",
		zap.Int("watchlist_count", len(a.GetWatchlist())),
		zap.Duration("every", a.cfg.Analysis.Every),
		zap.String("interval", a.cfg.Analysis.Interval),
	)

	a.router.StartCleanupRoutine(ctx, time.Hour)

	a.RunOnce(ctx)

	every := a.cfg.Analysis.Every
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("compass shutting down")
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			a.RunOnce(ctx)
		}
	}
}

// Stop cancels the analysis loop.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce performs a single analysis cycle over the watchlist: analyze and
// route each symbol, resolve pending signal outcomes, evaluate alert rules.
func (a *App) RunOnce(ctx context.Context) {
	symbols := a.GetWatchlist()
	if len(symbols) == 0 {
		a.logger.Debug("watchlist empty, nothing to analyze")
		return
	}

	a.logger.Debug("analysis cycle starting", zap.Int("symbols", len(symbols)))

	var errs int
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		report, err := a.Analyze(ctx, symbol)
		if err != nil {
			errs++
			a.logger.Warn("analysis failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}
		if report.Signal != nil {
			if err := a.router.Route(*report.Signal); err != nil {
				a.logger.Error("signal routing failed",
					zap.String("symbol", symbol),
					zap.Error(err),
				)
			}
		}
	}

	a.mu.Lock()
	a.runs += len(symbols)
	a.runErrors += errs
	a.mu.Unlock()

	a.resolveOutcomes(ctx)

	if a.alerts != nil {
		rules := a.cfg.Alerts.Rules
		if len(rules) == 0 {
			rules = alert.DefaultRules()
		}
		a.alerts.SetMetrics(a.alertMetrics(ctx))
		if fired := a.alerts.EvaluateAll(rules); fired > 0 {
			a.logger.Warn("operational alerts fired", zap.Int("count", fired))
		}
	}
}

// Analyze fetches the configured history for one symbol and runs the full
// pipeline. It does not route the emitted signal; the loop does that.
func (a *App) Analyze(ctx context.Context, symbol string) (*analysis.Report, error) {
	series, err := a.series(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return a.analyzer.Analyze(ctx, symbol, series)
}

// Briefing analyzes the symbol and asks the LLM for commentary on the
// result. Requires a configured LLM provider.
func (a *App) Briefing(ctx context.Context, symbol string) (*ai.Commentary, error) {
	if a.briefer == nil {
		return nil, core.WrapError(core.ErrLLMFailed,
			fmt.Errorf("no LLM provider configured"))
	}
	report, err := a.Analyze(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return a.briefer.Commentary(ctx, report)
}

// Candles returns the most recent candles for a symbol.
func (a *App) Candles(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error) {
	d, err := intervalDuration(interval)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	from := now.Add(-time.Duration(limit+5) * d)

	candles, err := a.fetchHistory(ctx, symbol, interval, from, now)
	if err != nil {
		return nil, err
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// Levels computes support and resistance for a symbol over the configured
// daily history.
func (a *App) Levels(ctx context.Context, symbol string) (*level.Set, error) {
	series, err := a.series(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if series.Len() < level.MinCandles {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("levels %s: %d candles, need %d", symbol, series.Len(), level.MinCandles))
	}
	return level.Find(series, a.cfg.Analysis.Levels)
}

// Cycle classifies the market cycle phase from the reference symbol's daily
// history.
func (a *App) Cycle(ctx context.Context) (*cycle.Info, error) {
	symbol := a.cfg.Cycle.Symbol
	days := a.cfg.Analysis.HistoryDays
	if days < cycle.MinDailyCandles {
		days = cycle.MinDailyCandles + 35
	}
	now := time.Now()
	candles, err := a.fetchHistory(ctx, symbol, core.Interval1d, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, err
	}
	if len(candles) < cycle.MinDailyCandles {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("cycle %s: %d daily candles, need %d", symbol, len(candles), cycle.MinDailyCandles))
	}
	series := core.NewSeries(symbol, core.Interval1d, candles)
	return cycle.Classify(cycle.Input{Daily: series, Now: now}), nil
}

// History fetches candles for an explicit time range.
func (a *App) History(ctx context.Context, symbol string, from, to time.Time, interval string) ([]core.Candle, error) {
	if _, err := intervalDuration(interval); err != nil {
		return nil, err
	}
	return a.fetchHistory(ctx, symbol, interval, from, to)
}

// Dataset loads a stored candle dataset by key.
func (a *App) Dataset(ctx context.Context, key string) ([]core.Candle, error) {
	return a.datasets.Load(ctx, key)
}

// series fetches the configured analysis history and wraps it.
func (a *App) series(ctx context.Context, symbol string) (*core.Series, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -a.cfg.Analysis.HistoryDays)
	interval := a.cfg.Analysis.Interval
	if interval == "" {
		interval = core.Interval1d
	}
	candles, err := a.fetchHistory(ctx, symbol, interval, from, now)
	if err != nil {
		return nil, err
	}
	return core.NewSeries(symbol, interval, candles), nil
}

// fetchHistory tries each registered collector in turn and returns the first
// non-empty result.
func (a *App) fetchHistory(ctx context.Context, symbol, interval string, from, to time.Time) ([]core.Candle, error) {
	collectors := a.collectors.GetAll()
	if len(collectors) == 0 {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("no collectors registered"))
	}

	var lastErr error
	for _, c := range collectors {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		candles, err := c.FetchHistory(symbol, from, to, interval)
		if err != nil {
			lastErr = err
			continue
		}
		if len(candles) > 0 {
			return candles, nil
		}
	}
	if lastErr != nil {
		return nil, core.WrapError(core.ErrProviderFailed, lastErr)
	}
	return nil, core.WrapError(core.ErrNoData,
		fmt.Errorf("no candles for %s %s", symbol, interval))
}

// resolveOutcomes sweeps pending signals whose evaluation window has closed
// and resolves them against the realized return. Fetch failures leave the
// record pending for the next sweep.
func (a *App) resolveOutcomes(ctx context.Context) {
	window := time.Duration(a.cfg.Backtest.OutcomeWindowDays) * 24 * time.Hour
	if window <= 0 {
		return
	}
	now := time.Now()

	resolved, err := a.signals.UpdateOutcomes(ctx, func(rec signal.Record) (core.Outcome, *float64) {
		deadline := rec.CreatedAt.Add(window)
		if now.Before(deadline) || rec.Price <= 0 {
			return core.OutcomePending, nil
		}
		candles, err := a.fetchHistory(ctx, rec.Symbol, core.Interval1d, rec.CreatedAt, deadline)
		if err != nil || len(candles) == 0 {
			return core.OutcomePending, nil
		}
		exit := candles[len(candles)-1].Close
		ret := (exit - rec.Price) / rec.Price * 100
		return core.ResolveOutcome(rec.Direction, ret), &ret
	})
	if err != nil {
		a.logger.Warn("outcome sweep failed", zap.Error(err))
		return
	}
	if resolved > 0 {
		a.logger.Info("signal outcomes resolved", zap.Int("count", resolved))
	}
}

// alertMetrics builds the readings alert rules evaluate against.
func (a *App) alertMetrics(ctx context.Context) map[string]float64 {
	a.mu.RLock()
	runs, errs := a.runs, a.runErrors
	watch := len(a.watchlist)
	a.mu.RUnlock()

	m := map[string]float64{
		"watchlist_size": float64(watch),
		"runs_total":     float64(runs),
		"errors_total":   float64(errs),
	}
	if runs > 0 {
		m["error_rate"] = float64(errs) / float64(runs)
	}
	if stats, err := a.signals.Stats(ctx, ""); err == nil {
		m["signals_total"] = float64(stats.Total)
		m["win_rate"] = stats.WinRate
		m["avg_return"] = stats.AvgReturn
	}
	return m
}

// GetWatchlist returns the tracked symbols in order.
func (a *App) GetWatchlist() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.watchlist))
	copy(out, a.watchlist)
	return out
}

// AddToWatchlist adds a symbol, ignoring duplicates.
func (a *App) AddToWatchlist(symbol string) {
	a.mu.Lock()
	a.addSymbolLocked(strings.ToUpper(strings.TrimSpace(symbol)))
	a.mu.Unlock()
	a.recordWatchlistSize()
}

func (a *App) addSymbol(symbol string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.addSymbolLocked(symbol)
}

func (a *App) addSymbolLocked(symbol string) {
	if symbol == "" {
		return
	}
	if _, exists := a.inList[symbol]; exists {
		return
	}
	a.inList[symbol] = struct{}{}
	a.watchlist = append(a.watchlist, symbol)
}

// RemoveFromWatchlist removes a symbol, reporting whether it was present.
func (a *App) RemoveFromWatchlist(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	a.mu.Lock()
	_, exists := a.inList[symbol]
	if exists {
		delete(a.inList, symbol)
		for i, s := range a.watchlist {
			if s == symbol {
				a.watchlist = append(a.watchlist[:i], a.watchlist[i+1:]...)
				break
			}
		}
	}
	a.mu.Unlock()

	if exists {
		a.recordWatchlistSize()
	}
	return exists
}

func (a *App) recordWatchlistSize() {
	if a.metrics == nil {
		return
	}
	a.mu.RLock()
	size := len(a.watchlist)
	a.mu.RUnlock()
	a.metrics.SetWatchlistSize(size)
}

// GetStats returns application statistics.
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"running":    a.running,
		"watchlist":  len(a.watchlist),
		"collectors": a.collectors.Names(),
		"notifiers":  len(a.notifiers.GetAll()),
		"runs":       a.runs,
		"run_errors": a.runErrors,
		"router":     a.router.GetStats(),
	}
}

// intervalDuration maps a candle interval to its wall-clock span.
func intervalDuration(interval string) (time.Duration, error) {
	switch interval {
	case core.Interval1m:
		return time.Minute, nil
	case core.Interval5m:
		return 5 * time.Minute, nil
	case core.Interval1h:
		return time.Hour, nil
	case core.Interval4h:
		return 4 * time.Hour, nil
	case core.Interval1d:
		return 24 * time.Hour, nil
	case core.Interval1w:
		return 7 * 24 * time.Hour, nil
	default:
		return 0, core.WrapError(core.ErrInvalidInterval,
			fmt.Errorf("interval %q", interval))
	}
}

// alertNotifier adapts a signal notifier to the alert channel. Operational
// alerts go out as hold signals from the "alert" source.
type alertNotifier struct {
	n notifier.Notifier
}

func (an alertNotifier) Name() string { return an.n.Name() }

func (an alertNotifier) Notify(msg string) error {
	return an.n.Send(core.Signal{
		ID:          uuid.NewString(),
		Symbol:      "SYSTEM",
		Kind:        core.KindHold,
		Reason:      msg,
		Source:      "alert",
		GeneratedAt: time.Now(),
	})
}

func alertNotifiers(reg *notifier.Registry) []alert.Notifier {
	all := reg.GetAll()
	out := make([]alert.Notifier, 0, len(all))
	for _, n := range all {
		out = append(out, alertNotifier{n: n})
	}
	return out
}
