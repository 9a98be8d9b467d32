// Package dataset persists candle series for backtests and offline
// analysis, and synthesizes series for scenarios without recorded history.
package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/newthinker/compass/internal/core"
)

// csvHeader is the fixed column layout of the CSV codec. Timestamps are
// milliseconds since epoch.
var csvHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// EncodeCSV serializes candles to CSV, oldest first.
func EncodeCSV(candles []core.Candle) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	for _, c := range candles {
		row := []string{
			strconv.FormatInt(c.Time.UnixMilli(), 10),
			formatFloat(c.Open),
			formatFloat(c.High),
			formatFloat(c.Low),
			formatFloat(c.Close),
			formatFloat(c.Volume),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// DecodeCSV parses candles from CSV produced by EncodeCSV.
func DecodeCSV(data []byte) ([]core.Candle, error) {
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty csv")
	}
	if len(rows[0]) < len(csvHeader) || rows[0][0] != csvHeader[0] {
		return nil, fmt.Errorf("unexpected csv header: %v", rows[0])
	}

	candles := make([]core.Candle, 0, len(rows)-1)
	for i, row := range rows[1:] {
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing timestamp: %w", i+1, err)
		}
		values := make([]float64, 5)
		for j := 0; j < 5; j++ {
			v, err := strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: parsing %s: %w", i+1, csvHeader[j+1], err)
			}
			values[j] = v
		}
		candles = append(candles, core.Candle{
			Interval: core.Interval1d,
			Open:     values[0],
			High:     values[1],
			Low:      values[2],
			Close:    values[3],
			Volume:   values[4],
			Time:     time.UnixMilli(ts).UTC(),
		})
	}
	if err := core.ValidateCandles(candles); err != nil {
		return nil, fmt.Errorf("invalid csv candles: %w", err)
	}
	return candles, nil
}

// EncodeJSON serializes candles to a JSON array.
func EncodeJSON(candles []core.Candle) ([]byte, error) {
	return json.MarshalIndent(candles, "", "  ")
}

// DecodeJSON parses candles from a JSON array.
func DecodeJSON(data []byte) ([]core.Candle, error) {
	var candles []core.Candle
	if err := json.Unmarshal(data, &candles); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	if err := core.ValidateCandles(candles); err != nil {
		return nil, fmt.Errorf("invalid json candles: %w", err)
	}
	return candles, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
