package api

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/compass/internal/ai"
	"github.com/newthinker/compass/internal/analysis"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/cycle"
	"github.com/newthinker/compass/internal/level"
)

// mockApp implements the handler app interfaces for tests.
type mockApp struct {
	mu        sync.Mutex
	watchlist []string
	ranOnce   bool

	report     *analysis.Report
	analyzeErr error

	candles    []core.Candle
	candlesErr error

	levels    *level.Set
	levelsErr error

	cycleInfo *cycle.Info
	cycleErr  error

	history    []core.Candle
	historyErr error
	dataset    []core.Candle
	datasetErr error
}

func (m *mockApp) GetWatchlist() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.watchlist...)
}

func (m *mockApp) AddToWatchlist(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchlist = append(m.watchlist, symbol)
}

func (m *mockApp) RemoveFromWatchlist(symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.watchlist {
		if s == symbol {
			m.watchlist = append(m.watchlist[:i], m.watchlist[i+1:]...)
			return true
		}
	}
	return false
}

func (m *mockApp) RunOnce(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranOnce = true
}

func (m *mockApp) Analyze(ctx context.Context, symbol string) (*analysis.Report, error) {
	if m.analyzeErr != nil {
		return nil, m.analyzeErr
	}
	return m.report, nil
}

func (m *mockApp) Candles(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error) {
	if m.candlesErr != nil {
		return nil, m.candlesErr
	}
	if limit < len(m.candles) {
		return m.candles[:limit], nil
	}
	return m.candles, nil
}

func (m *mockApp) Levels(ctx context.Context, symbol string) (*level.Set, error) {
	if m.levelsErr != nil {
		return nil, m.levelsErr
	}
	return m.levels, nil
}

func (m *mockApp) Cycle(ctx context.Context) (*cycle.Info, error) {
	if m.cycleErr != nil {
		return nil, m.cycleErr
	}
	return m.cycleInfo, nil
}

func (m *mockApp) History(ctx context.Context, symbol string, from, to time.Time, interval string) ([]core.Candle, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history, nil
}

func (m *mockApp) Dataset(ctx context.Context, key string) ([]core.Candle, error) {
	if m.datasetErr != nil {
		return nil, m.datasetErr
	}
	return m.dataset, nil
}

// mockBriefer implements BriefingApp.
type mockBriefer struct {
	commentary *ai.Commentary
	err        error
}

func (m *mockBriefer) Briefing(ctx context.Context, symbol string) (*ai.Commentary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.commentary, nil
}
