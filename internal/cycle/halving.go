package cycle

import "time"

// HalvingDates lists the bitcoin halvings in order.
var HalvingDates = []time.Time{
	time.Date(2012, 11, 28, 0, 0, 0, 0, time.UTC),
	time.Date(2016, 7, 9, 0, 0, 0, 0, time.UTC),
	time.Date(2020, 5, 11, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
}

// NextHalvingEstimate is the projected date of the halving after the last
// known one, roughly 210000 blocks out.
var NextHalvingEstimate = time.Date(2028, 4, 1, 0, 0, 0, 0, time.UTC)

// halvingMetrics positions now inside the current halving cycle. All fields
// are nil before the first halving.
type halvingMetricsResult struct {
	daysSince   *int
	daysToNext  *int
	progressPct *float64
}

func halvingMetrics(now time.Time) halvingMetricsResult {
	var last, next time.Time
	for _, h := range HalvingDates {
		if !h.After(now) {
			last = h
		} else if next.IsZero() {
			next = h
		}
	}
	if last.IsZero() {
		return halvingMetricsResult{}
	}
	if next.IsZero() {
		next = NextHalvingEstimate
	}

	daysSince := int(now.Sub(last).Hours() / 24)
	daysToNext := int(next.Sub(now).Hours() / 24)

	cycleLength := next.Sub(last).Hours() / 24
	progress := float64(daysSince) / cycleLength * 100

	return halvingMetricsResult{
		daysSince:   &daysSince,
		daysToNext:  &daysToNext,
		progressPct: &progress,
	}
}

// HalvingEvent is one entry in the halving timeline.
type HalvingEvent struct {
	Date     time.Time `json:"date"`
	Sequence int       `json:"sequence"`
	Past     bool      `json:"past"`
	Days     int       `json:"days"` // days ago when past, days ahead otherwise
}

// Timeline lists all known halvings plus the next projected one, relative
// to now.
func Timeline(now time.Time) []HalvingEvent {
	events := make([]HalvingEvent, 0, len(HalvingDates)+1)
	next := NextHalvingEstimate
	for i, h := range HalvingDates {
		if h.After(now) {
			next = h
			break
		}
		events = append(events, HalvingEvent{
			Date:     h,
			Sequence: i + 1,
			Past:     true,
			Days:     int(now.Sub(h).Hours() / 24),
		})
	}
	events = append(events, HalvingEvent{
		Date:     next,
		Sequence: len(events) + 1,
		Days:     int(next.Sub(now).Hours() / 24),
	})
	return events
}
