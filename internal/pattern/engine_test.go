package pattern

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/compass/internal/core"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dailyCandles(closes []float64) []core.Candle {
	out := make([]core.Candle, len(closes))
	for i, c := range closes {
		out[i] = core.Candle{
			Symbol:   "BTCUSDT",
			Interval: core.Interval1d,
			Open:     c,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
			Volume:   1000,
			Time:     testStart.AddDate(0, 0, i),
		}
	}
	return out
}

func flatCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func inputFor(candles []core.Candle) Input {
	return Input{Series: core.NewSeries("BTCUSDT", core.Interval1d, candles)}
}

type mockDetector struct {
	name    string
	pattern *Pattern
	err     error
	calls   int
}

func (m *mockDetector) Name() string { return m.name }
func (m *mockDetector) Detect(in Input) (*Pattern, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.pattern == nil {
		return nil, nil
	}
	p := *m.pattern
	return &p, nil
}

type mockHistory struct {
	occ     []Occurrence
	err     error
	symbol  string
	pattern Type
}

func (m *mockHistory) Occurrences(ctx context.Context, symbol string, pattern Type, limit int) ([]Occurrence, error) {
	m.symbol = symbol
	m.pattern = pattern
	return m.occ, m.err
}

func TestEngine_RegisterOrder(t *testing.T) {
	e := NewEngine()
	e.Register(&mockDetector{name: "a"})
	e.Register(&mockDetector{name: "b"})
	e.Register(&mockDetector{name: "c"})

	want := []string{"a", "b", "c"}
	got := e.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Re-registering keeps the original slot.
	e.Register(&mockDetector{name: "b"})
	got = e.Names()
	if len(got) != 3 || got[1] != "b" {
		t.Errorf("Names() after replace = %v, want [a b c]", got)
	}
}

func TestEngine_DefaultOrder(t *testing.T) {
	e := DefaultEngine()
	want := []string{
		"ma_cross", "rsi_extreme", "trend_streak", "double_extreme",
		"bollinger_break", "sr_break", "swing_trend",
	}
	got := e.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEngine_DetectAllShortSeries(t *testing.T) {
	e := NewEngine()
	d := &mockDetector{name: "mock"}
	e.Register(d)

	patterns, err := e.DetectAll(context.Background(), inputFor(dailyCandles(flatCloses(30, 100))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patterns != nil {
		t.Errorf("expected no patterns, got %v", patterns)
	}
	if d.calls != 0 {
		t.Errorf("detector ran %d times on a short series", d.calls)
	}
}

func TestEngine_DetectAllSkipsFailedDetector(t *testing.T) {
	e := NewEngine()
	e.Register(&mockDetector{name: "bad", err: errors.New("boom")})
	good := &mockDetector{name: "good", pattern: &Pattern{
		Type:      TypeRSIOversold,
		Direction: core.SentimentBullish,
		Strength:  5,
	}}
	e.Register(good)

	candles := dailyCandles(flatCloses(60, 100))
	patterns, err := e.DetectAll(context.Background(), inputFor(candles))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(patterns))
	}

	p := patterns[0]
	if p.CurrentPrice != 100 {
		t.Errorf("CurrentPrice = %v, want 100", p.CurrentPrice)
	}
	if !p.Time.Equal(candles[59].Time) {
		t.Errorf("Time = %v, want %v", p.Time, candles[59].Time)
	}
}

func TestEngine_DetectAllAnnotatesHistory(t *testing.T) {
	candles := dailyCandles(flatCloses(60, 100))
	lastTime := candles[59].Time

	e := NewEngine()
	e.Register(&mockDetector{name: "mock", pattern: &Pattern{
		Type:      TypeRSIOversold,
		Direction: core.SentimentBullish,
		Strength:  5,
	}})

	provider := &mockHistory{occ: []Occurrence{
		{Time: lastTime.AddDate(0, 0, -10), Return7d: f64(3), Return30d: f64(12)},
		{Time: lastTime.AddDate(0, 0, -40), Return7d: f64(-1), Return30d: f64(-4)},
	}}
	e.SetHistory(provider)

	patterns, err := e.DetectAll(context.Background(), inputFor(candles))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(patterns))
	}

	if provider.symbol != "BTCUSDT" || provider.pattern != TypeRSIOversold {
		t.Errorf("provider queried with %q/%q", provider.symbol, provider.pattern)
	}

	h := patterns[0].History
	if h == nil {
		t.Fatal("History not attached")
	}
	if h.Occurrences != 2 {
		t.Errorf("Occurrences = %d, want 2", h.Occurrences)
	}
	if h.DaysSinceLast != 10 {
		t.Errorf("DaysSinceLast = %d, want 10", h.DaysSinceLast)
	}
	if h.ReturnWindowDays != 7 {
		t.Errorf("ReturnWindowDays = %d, want 7", h.ReturnWindowDays)
	}
	if h.LastReturnPct == nil || *h.LastReturnPct != 3 {
		t.Errorf("LastReturnPct = %v, want 3", h.LastReturnPct)
	}
	if h.WinRate == nil || *h.WinRate != 50 {
		t.Errorf("WinRate = %v, want 50", h.WinRate)
	}
	if h.AvgReturnPct == nil || *h.AvgReturnPct != 4 {
		t.Errorf("AvgReturnPct = %v, want 4", h.AvgReturnPct)
	}
}

func TestEngine_DetectAllHistoryFailureKeepsPattern(t *testing.T) {
	e := NewEngine()
	e.Register(&mockDetector{name: "mock", pattern: &Pattern{
		Type:      TypeRSIOversold,
		Direction: core.SentimentBullish,
	}})
	e.SetHistory(&mockHistory{err: errors.New("store down")})

	patterns, err := e.DetectAll(context.Background(), inputFor(dailyCandles(flatCloses(60, 100))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(patterns))
	}
	if patterns[0].History != nil {
		t.Errorf("History = %v, want nil after lookup failure", patterns[0].History)
	}
}

func TestEngine_DetectAllCanceled(t *testing.T) {
	e := NewEngine()
	e.Register(&mockDetector{name: "mock"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.DetectAll(ctx, inputFor(dailyCandles(flatCloses(60, 100))))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestStatWindowDays(t *testing.T) {
	tests := []struct {
		t    Type
		want int
	}{
		{TypeGoldenCross, 30},
		{TypeDeathCross, 30},
		{TypeDoubleTop, 30},
		{TypeDoubleBottom, 30},
		{TypeRSIOversold, 7},
		{TypeTrendDown, 7},
		{TypeResistanceBreak, 7},
		{TypeHigherHighs, 0},
		{TypeLowerLows, 0},
	}
	for _, tt := range tests {
		if got := statWindowDays(tt.t); got != tt.want {
			t.Errorf("statWindowDays(%s) = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestBuildHistoryBearishWins(t *testing.T) {
	now := testStart
	occ := []Occurrence{
		{Time: now.AddDate(0, 0, -5), Return7d: f64(-2), Return30d: f64(-8)},
		{Time: now.AddDate(0, 0, -60), Return30d: f64(6)},
	}

	h := buildHistory(now, occ, 30, core.SentimentBearish)
	if h == nil {
		t.Fatal("buildHistory returned nil")
	}
	if h.LastReturnPct == nil || *h.LastReturnPct != -8 {
		t.Errorf("LastReturnPct = %v, want -8 for the 30-day window", h.LastReturnPct)
	}
	if h.WinRate == nil || *h.WinRate != 50 {
		t.Errorf("WinRate = %v, want 50", h.WinRate)
	}
	if h.AvgReturnPct == nil || *h.AvgReturnPct != -1 {
		t.Errorf("AvgReturnPct = %v, want -1", h.AvgReturnPct)
	}
}

func TestBuildHistoryEmpty(t *testing.T) {
	if h := buildHistory(testStart, nil, 7, core.SentimentBullish); h != nil {
		t.Errorf("buildHistory(nil) = %v, want nil", h)
	}
}
