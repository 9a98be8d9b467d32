// Package yahoo fetches traditional-market data from the Yahoo Finance
// chart API. It covers the macro reference symbols (^GSPC, DX-Y.NYB, GC=F)
// alongside ordinary tickers.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/newthinker/compass/internal/collector"
	"github.com/newthinker/compass/internal/core"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// validSymbol matches tickers (AAPL), indices (^GSPC), futures (GC=F) and
// dotted venue suffixes (DX-Y.NYB).
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9][A-Za-z0-9.\-=]{0,19}$`)

func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements the Yahoo Finance collector
type Yahoo struct {
	client  *http.Client
	baseURL string
	config  collector.Config
}

// New creates a new Yahoo collector
func New() *Yahoo {
	return &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
}

// NewWithBaseURL creates a Yahoo collector with custom base URL (for testing)
func NewWithBaseURL(u string) *Yahoo {
	y := New()
	y.baseURL = u
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketTraditional}
}

func (y *Yahoo) Init(cfg collector.Config) error {
	y.config = cfg
	return nil
}

func (y *Yahoo) Start(ctx context.Context) error {
	return nil
}

func (y *Yahoo) Stop() error {
	return nil
}

// FetchQuote fetches real-time quote
func (y *Yahoo) FetchQuote(symbol string) (*core.Quote, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/%s?interval=1d&range=1d", y.baseURL, url.PathEscape(symbol))

	result, err := y.fetchChart(u)
	if err != nil {
		return nil, err
	}

	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data for symbol: %s", symbol)
	}

	meta := result.Chart.Result[0].Meta

	return &core.Quote{
		Symbol: symbol,
		Market: core.MarketTraditional,
		Price:  meta.RegularMarketPrice,
		Volume: meta.RegularMarketVolume,
		Time:   time.Unix(int64(meta.RegularMarketTime), 0),
		Source: "yahoo",
	}, nil
}

// FetchHistory fetches historical OHLCV data
func (y *Yahoo) FetchHistory(symbol string, start, end time.Time, interval string) ([]core.Candle, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/%s?interval=%s&period1=%d&period2=%d",
		y.baseURL, url.PathEscape(symbol), y.toYahooInterval(interval), start.Unix(), end.Unix())

	result, err := y.fetchChart(u)
	if err != nil {
		return nil, err
	}

	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data for symbol: %s", symbol)
	}

	r := result.Chart.Result[0]
	timestamps := r.Timestamp
	if len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data for symbol: %s", symbol)
	}
	quotes := r.Indicators.Quote[0]

	data := make([]core.Candle, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(quotes.Open) || quotes.Open[i] == nil {
			continue // Skip missing data
		}
		var volume float64
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			volume = *quotes.Volume[i]
		}
		data = append(data, core.Candle{
			Symbol:   symbol,
			Interval: interval,
			Open:     *quotes.Open[i],
			High:     *quotes.High[i],
			Low:      *quotes.Low[i],
			Close:    *quotes.Close[i],
			Volume:   volume,
			Time:     time.Unix(int64(ts), 0),
		})
	}

	if err := core.ValidateCandles(data); err != nil {
		return nil, fmt.Errorf("yahoo returned invalid candles for %s: %w", symbol, err)
	}
	return data, nil
}

func (y *Yahoo) fetchChart(u string) (*chartResponse, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching chart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description)
	}

	return &result, nil
}

func (y *Yahoo) toYahooInterval(interval string) string {
	switch interval {
	case "1m", "5m", "1h", "1d", "1wk", "1mo":
		return interval
	case "1w":
		return "1wk"
	default:
		return "1d"
	}
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int      `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol              string  `json:"symbol"`
	RegularMarketPrice  float64 `json:"regularMarketPrice"`
	RegularMarketVolume float64 `json:"regularMarketVolume"`
	RegularMarketTime   int     `json:"regularMarketTime"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}
