package binance

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/compass/internal/core"
)

func TestBinance_Name(t *testing.T) {
	b := New()
	if b.Name() != "binance" {
		t.Errorf("expected 'binance', got '%s'", b.Name())
	}
}

func TestBinance_ToInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1m", "1m"},
		{"5m", "5m"},
		{"15m", "15m"},
		{"1h", "1h"},
		{"4h", "4h"},
		{"1d", "1d"},
		{"1w", "1w"},
		{"unknown", "1d"},
	}

	b := New()
	for _, tc := range tests {
		got := b.toInterval(tc.input)
		if got != tc.expected {
			t.Errorf("toInterval(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestBinance_FetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "BTCUSDT" {
			t.Errorf("unexpected symbol %s", r.URL.Query().Get("symbol"))
		}
		w.Write([]byte(`{
			"symbol":"BTCUSDT","priceChange":"500","priceChangePercent":"1.0",
			"lastPrice":"50500","openPrice":"50000","highPrice":"51000","lowPrice":"49500",
			"volume":"1234.5","prevClosePrice":"50000","bidPrice":"50490","askPrice":"50510",
			"closeTime":1700000000000
		}`))
	}))
	defer server.Close()

	b := NewWithBaseURL(server.URL)
	quote, err := b.FetchQuote("BTCUSDT")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}

	if quote.Price != 50500 {
		t.Errorf("Price = %f, want 50500", quote.Price)
	}
	if quote.Volume != 1234.5 {
		t.Errorf("Volume = %f, want 1234.5", quote.Volume)
	}
	if quote.Market != core.MarketCrypto {
		t.Errorf("Market = %s, want crypto", quote.Market)
	}
	if quote.Source != "binance" {
		t.Errorf("Source = %s, want binance", quote.Source)
	}
	if !quote.Time.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("Time = %v", quote.Time)
	}
}

func TestBinance_FetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected interval %s", r.URL.Query().Get("interval"))
		}
		w.Write([]byte(`[
			[1700000000000,"50000","51000","49500","50500","1234.5",1700086399999],
			[1700086400000,"50500","52000","50400","51800","2345.6",1700172799999]
		]`))
	}))
	defer server.Close()

	b := NewWithBaseURL(server.URL)
	end := time.Now()
	start := end.AddDate(0, 0, -7)

	data, err := b.FetchHistory("BTCUSDT", start, end, "1d")
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}

	if len(data) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(data))
	}
	first := data[0]
	if first.Open != 50000 || first.High != 51000 || first.Low != 49500 || first.Close != 50500 {
		t.Errorf("unexpected candle: %+v", first)
	}
	if first.Volume != 1234.5 {
		t.Errorf("Volume = %f, want 1234.5", first.Volume)
	}
	if !first.Time.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("Time = %v", first.Time)
	}
	if data[1].Close != 51800 {
		t.Errorf("second Close = %f, want 51800", data[1].Close)
	}
}

func TestBinance_FetchQuote_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	b := NewWithBaseURL(server.URL)
	if _, err := b.FetchQuote("BTCUSDT"); err == nil {
		t.Error("expected error on non-200 status")
	}
}
