package okx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/compass/internal/core"
)

func TestOKX_Name(t *testing.T) {
	o := New()
	if o.Name() != "okx" {
		t.Errorf("expected 'okx', got '%s'", o.Name())
	}
}

func TestOKX_ToInstID(t *testing.T) {
	tests := []struct {
		symbol   string
		expected string
	}{
		{"BTCUSDT", "BTC-USDT"},
		{"ETHUSDT", "ETH-USDT"},
		{"SOLUSDT", "SOL-USDT"},
		{"ETHBTC", "ETH-BTC"},
	}

	o := New()
	for _, tc := range tests {
		got := o.toInstID(tc.symbol)
		if got != tc.expected {
			t.Errorf("toInstID(%s) = %s, want %s", tc.symbol, got, tc.expected)
		}
	}
}

func TestOKX_ToInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1m", "1m"},
		{"5m", "5m"},
		{"1h", "1H"},
		{"4h", "4H"},
		{"1d", "1D"},
		{"1w", "1W"},
		{"bogus", "1D"},
	}

	o := New()
	for _, tc := range tests {
		got := o.toInterval(tc.input)
		if got != tc.expected {
			t.Errorf("toInterval(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestOKX_FetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/market/ticker" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("instId") != "BTC-USDT" {
			t.Errorf("unexpected instId %s", r.URL.Query().Get("instId"))
		}
		w.Write([]byte(`{"code":"0","msg":"","data":[{
			"instId":"BTC-USDT","last":"50500","open24h":"50000","high24h":"51000",
			"low24h":"49500","vol24h":"1234.5","bidPx":"50490","askPx":"50510",
			"ts":"1700000000000"
		}]}`))
	}))
	defer server.Close()

	o := NewWithBaseURL(server.URL)
	quote, err := o.FetchQuote("BTCUSDT")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}

	if quote.Price != 50500 {
		t.Errorf("Price = %f, want 50500", quote.Price)
	}
	if quote.Change != 500 {
		t.Errorf("Change = %f, want 500", quote.Change)
	}
	if quote.ChangePercent != 1.0 {
		t.Errorf("ChangePercent = %f, want 1.0", quote.ChangePercent)
	}
	if quote.Volume != 1234.5 {
		t.Errorf("Volume = %f, want 1234.5", quote.Volume)
	}
	if quote.Market != core.MarketCrypto {
		t.Errorf("Market = %s, want crypto", quote.Market)
	}
	if quote.Source != "okx" {
		t.Errorf("Source = %s, want okx", quote.Source)
	}
}

func TestOKX_FetchQuote_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"51001","msg":"Instrument ID does not exist","data":[]}`))
	}))
	defer server.Close()

	o := NewWithBaseURL(server.URL)
	if _, err := o.FetchQuote("NOPEUSDT"); err == nil {
		t.Error("expected error on non-zero code")
	}
}

func TestOKX_FetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/market/candles" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("bar") != "1D" {
			t.Errorf("unexpected bar %s", r.URL.Query().Get("bar"))
		}
		// Newest first, as the OKX API returns
		w.Write([]byte(`{"code":"0","msg":"","data":[
			["1700086400000","50500","52000","50400","51800","2345.6"],
			["1700000000000","50000","51000","49500","50500","1234.5"]
		]}`))
	}))
	defer server.Close()

	o := NewWithBaseURL(server.URL)
	end := time.Now()
	start := end.AddDate(0, 0, -7)

	data, err := o.FetchHistory("BTCUSDT", start, end, "1d")
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}

	if len(data) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(data))
	}
	// Should be reversed to chronological order
	if !data[0].Time.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("first candle Time = %v, want oldest first", data[0].Time)
	}
	if data[0].Open != 50000 || data[0].Close != 50500 {
		t.Errorf("unexpected first candle: %+v", data[0])
	}
	if data[1].Close != 51800 {
		t.Errorf("second Close = %f, want 51800", data[1].Close)
	}
	if data[0].Volume != 1234.5 {
		t.Errorf("Volume = %f, want 1234.5", data[0].Volume)
	}
}
