package cycle

import (
	"math"
	"testing"
	"time"
)

func TestHalvingMetrics(t *testing.T) {
	now := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	got := halvingMetrics(now)

	if got.daysSince == nil || *got.daysSince != 103 {
		t.Errorf("daysSince = %v, want 103", got.daysSince)
	}
	if got.daysToNext == nil || *got.daysToNext != 1339 {
		t.Errorf("daysToNext = %v, want 1339", got.daysToNext)
	}

	wantProgress := 103.0 / 1442.0 * 100
	if got.progressPct == nil || math.Abs(*got.progressPct-wantProgress) > 1e-9 {
		t.Errorf("progressPct = %v, want %v", got.progressPct, wantProgress)
	}
}

func TestHalvingMetricsMidCycle(t *testing.T) {
	now := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	got := halvingMetrics(now)

	if got.daysSince == nil || got.daysToNext == nil {
		t.Fatalf("metrics missing: %+v", got)
	}

	// 2016-07-09 to 2017-01-01 and on to 2020-05-11.
	if *got.daysSince != 176 {
		t.Errorf("daysSince = %d, want 176", *got.daysSince)
	}
	if *got.daysToNext != 1226 {
		t.Errorf("daysToNext = %d, want 1226", *got.daysToNext)
	}
}

func TestHalvingMetricsBeforeFirst(t *testing.T) {
	got := halvingMetrics(time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC))
	if got.daysSince != nil || got.daysToNext != nil || got.progressPct != nil {
		t.Errorf("expected all-nil metrics before the first halving, got %+v", got)
	}
}

func TestTimeline(t *testing.T) {
	now := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	events := Timeline(now)

	if len(events) != 5 {
		t.Fatalf("len(events) = %d, want 4 past halvings plus the next", len(events))
	}
	for i, e := range events[:4] {
		if !e.Past {
			t.Errorf("events[%d].Past = false, want true", i)
		}
		if e.Sequence != i+1 {
			t.Errorf("events[%d].Sequence = %d, want %d", i, e.Sequence, i+1)
		}
	}

	next := events[4]
	if next.Past {
		t.Error("next halving marked past")
	}
	if !next.Date.Equal(NextHalvingEstimate) {
		t.Errorf("next.Date = %v, want %v", next.Date, NextHalvingEstimate)
	}
	if next.Days != 1339 {
		t.Errorf("next.Days = %d, want 1339", next.Days)
	}
}
