package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	marketctx "github.com/newthinker/compass/internal/context"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/storage/signal"
)

func dailySeries(n int, start, dailyPct float64) *core.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]core.Candle, n)
	price := start
	for i := 0; i < n; i++ {
		candles[i] = core.Candle{
			Symbol:   "BTCUSDT",
			Interval: core.Interval1d,
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
			Volume:   1000,
			Time:     base.AddDate(0, 0, i),
		}
		price *= 1 + dailyPct/100
	}
	return core.NewSeries("BTCUSDT", core.Interval1d, candles)
}

type stubFearGreed struct {
	value float64
	err   error
}

func (s *stubFearGreed) Current(context.Context) (*marketctx.FearGreed, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &marketctx.FearGreed{Value: s.value, Classification: "test"}, nil
}

func (s *stubFearGreed) History(context.Context, int) ([]marketctx.FearGreed, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []marketctx.FearGreed{{Value: s.value}}, nil
}

func TestAnalyzer_FullPipeline(t *testing.T) {
	store := signal.NewMemoryStore(0)
	analyzer := New(nil, WithStore(store))

	series := dailySeries(400, 100, 0.3)
	report, err := analyzer.Analyze(context.Background(), "BTCUSDT", series)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if report.Snapshot == nil {
		t.Fatal("Snapshot is nil")
	}
	if report.Levels == nil {
		t.Error("Levels is nil with 400 candles")
	}
	if report.Patterns == nil {
		t.Error("Patterns is nil: detection ran, want empty slice at minimum")
	}
	if report.Cycle == nil {
		t.Error("Cycle is nil with 400 daily candles")
	}
	if report.Score == nil {
		t.Fatal("Score is nil")
	}
	if report.Signal == nil {
		t.Fatal("Signal is nil")
	}
	if report.Signal.ID == "" {
		t.Error("Signal.ID is empty")
	}
	if report.Signal.Source != "composite" {
		t.Errorf("Signal.Source = %q, want composite", report.Signal.Source)
	}
	if report.Signal.Reason == "" {
		t.Error("Signal.Reason is empty")
	}
	if report.Price != series.Last().Close {
		t.Errorf("Price = %v, want last close %v", report.Price, series.Last().Close)
	}

	// Signal persisted.
	count, err := store.Count(context.Background(), signal.ListFilter{Source: "composite"})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("stored signals = %d, want 1", count)
	}
}

func TestAnalyzer_ShortSeriesDegrades(t *testing.T) {
	analyzer := New(nil)

	// 30 candles: enough for a snapshot, too few for levels' swing lookback
	// to matter, patterns, or cycle.
	report, err := analyzer.Analyze(context.Background(), "BTCUSDT", dailySeries(30, 100, 0.3))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Snapshot == nil {
		t.Fatal("Snapshot is nil")
	}
	if report.Patterns != nil {
		t.Errorf("Patterns = %v, want nil below the detection floor", report.Patterns)
	}
	if report.Cycle != nil {
		t.Error("Cycle is not nil below 365 candles")
	}
	if report.Score == nil || report.Signal == nil {
		t.Fatal("score/signal missing on degraded analysis")
	}
}

func TestAnalyzer_InsufficientData(t *testing.T) {
	analyzer := New(nil)
	_, err := analyzer.Analyze(context.Background(), "BTCUSDT", dailySeries(10, 100, 0.3))
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("Analyze() error = %v, want ErrInsufficientData", err)
	}

	_, err = analyzer.Analyze(context.Background(), "BTCUSDT", nil)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("Analyze(nil) error = %v, want ErrInsufficientData", err)
	}
}

func TestAnalyzer_ProviderFeedsScore(t *testing.T) {
	analyzer := New(nil, WithProviders(Providers{
		FearGreed: &stubFearGreed{value: 10},
	}))

	report, err := analyzer.Analyze(context.Background(), "BTCUSDT", dailySeries(100, 100, 0.3))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Context == nil || report.Context.FearGreed == nil {
		t.Fatal("fear & greed reading missing from report")
	}

	found := false
	for _, c := range report.Score.Components {
		if c.Name == "fear_greed" {
			found = true
		}
	}
	if !found {
		t.Error("fear_greed component missing from score")
	}
}

func TestAnalyzer_ProviderFailureTolerated(t *testing.T) {
	analyzer := New(nil, WithProviders(Providers{
		FearGreed: &stubFearGreed{err: errors.New("upstream down")},
	}))

	report, err := analyzer.Analyze(context.Background(), "BTCUSDT", dailySeries(100, 100, 0.3))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Context.FearGreed != nil {
		t.Error("failed fetch produced a reading")
	}
	for _, c := range report.Score.Components {
		if c.Name == "fear_greed" {
			t.Error("fear_greed component present despite failed fetch")
		}
	}
}

func TestStoreHistory_Occurrences(t *testing.T) {
	store := signal.NewMemoryStore(0)
	ret := 5.5
	rec := signal.Record{
		Symbol:        "BTCUSDT",
		Source:        "pattern",
		Pattern:       "golden_cross",
		Kind:          core.KindBuy,
		Direction:     core.DirectionUp,
		Outcome:       core.OutcomeWin,
		OutcomeReturn: &ret,
		CreatedAt:     time.Now().AddDate(0, 0, -40),
	}
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	history := NewStoreHistory(store)
	occ, err := history.Occurrences(context.Background(), "BTCUSDT", "golden_cross", 10)
	if err != nil {
		t.Fatalf("Occurrences() error = %v", err)
	}
	if len(occ) != 1 {
		t.Fatalf("len(occ) = %d, want 1", len(occ))
	}
	if occ[0].Return7d == nil || *occ[0].Return7d != ret {
		t.Errorf("Return7d = %v, want %v", occ[0].Return7d, ret)
	}

	// Other symbols and sources stay invisible.
	occ, err = history.Occurrences(context.Background(), "ETHUSDT", "golden_cross", 10)
	if err != nil {
		t.Fatalf("Occurrences() error = %v", err)
	}
	if len(occ) != 0 {
		t.Errorf("len(occ) for other symbol = %d, want 0", len(occ))
	}
}
