package core

import (
	"fmt"
	"sort"
	"time"
)

// ValidateCandles checks every candle's shape and requires strictly
// ascending timestamps: duplicates and out-of-order bars are rejected, not
// repaired. Ingestion boundaries run this so malformed data never reaches
// the pipeline.
func ValidateCandles(candles []Candle) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("candle %d: %w", i, err)
		}
		if i > 0 && !candles[i-1].Time.Before(c.Time) {
			return WrapError(ErrInvalidInput,
				fmt.Errorf("candle %d: timestamp %s not after previous %s",
					i, c.Time.Format(time.RFC3339), candles[i-1].Time.Format(time.RFC3339)))
		}
	}
	return nil
}

// Series is an ordered collection of candles for one symbol and interval.
// Candles are expected oldest first; NewSeries enforces the ordering.
type Series struct {
	Symbol   string
	Interval string
	Candles  []Candle
}

// NewSeries builds a series from candles, sorting them by time ascending.
func NewSeries(symbol, interval string, candles []Candle) *Series {
	sorted := make([]Candle, len(candles))
	copy(sorted, candles)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return &Series{Symbol: symbol, Interval: interval, Candles: sorted}
}

// Len returns the number of candles.
func (s *Series) Len() int {
	return len(s.Candles)
}

// At returns the candle at index i.
func (s *Series) At(i int) Candle {
	return s.Candles[i]
}

// Last returns the most recent candle. The series must be non-empty.
func (s *Series) Last() Candle {
	return s.Candles[len(s.Candles)-1]
}

// Closes returns all close prices oldest first.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Highs returns all high prices oldest first.
func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.High
	}
	return out
}

// Lows returns all low prices oldest first.
func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Low
	}
	return out
}

// Volumes returns all volumes oldest first.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}

// Slice returns a sub-series over candles[i:j]. The backing array is shared.
func (s *Series) Slice(i, j int) *Series {
	return &Series{Symbol: s.Symbol, Interval: s.Interval, Candles: s.Candles[i:j]}
}

// Tail returns a sub-series of at most n most recent candles.
func (s *Series) Tail(n int) *Series {
	if n >= len(s.Candles) {
		return s
	}
	return s.Slice(len(s.Candles)-n, len(s.Candles))
}

// Before returns a sub-series of all candles with Time <= t.
// This is the point-in-time cut: a consumer holding the result cannot
// observe anything after t.
func (s *Series) Before(t time.Time) *Series {
	n := sort.Search(len(s.Candles), func(i int) bool {
		return s.Candles[i].Time.After(t)
	})
	return s.Slice(0, n)
}

// Resample aggregates the series into a coarser interval. Only daily to
// weekly aggregation is supported; weeks follow ISO week boundaries.
func (s *Series) Resample(interval string) (*Series, error) {
	if interval != Interval1w {
		return nil, WrapError(ErrInvalidInterval, nil)
	}
	if s.Interval != Interval1d {
		return nil, WrapError(ErrInvalidInterval, nil)
	}

	var out []Candle
	var cur *Candle
	var curYear, curWeek int

	for _, c := range s.Candles {
		y, w := c.Time.ISOWeek()
		if cur == nil || y != curYear || w != curWeek {
			if cur != nil {
				out = append(out, *cur)
			}
			nc := c
			nc.Interval = Interval1w
			cur = &nc
			curYear, curWeek = y, w
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	if cur != nil {
		out = append(out, *cur)
	}

	return &Series{Symbol: s.Symbol, Interval: Interval1w, Candles: out}, nil
}
