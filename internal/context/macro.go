package context

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/newthinker/compass/internal/core"
)

const yahooChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Traditional-market symbols tracked for the macro backdrop.
const (
	symbolSP500 = "^GSPC"
	symbolDXY   = "DX-Y.NYB"
	symbolGold  = "GC=F"
)

// MacroClient fetches the traditional-market backdrop from the Yahoo
// Finance chart API. Each symbol fails independently; the reading only
// errors when all three are unavailable.
type MacroClient struct {
	client  *http.Client
	baseURL string
}

// NewMacroClient creates a macro backdrop client.
func NewMacroClient() *MacroClient {
	return &MacroClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: yahooChartBaseURL,
	}
}

// NewMacroClientWithBaseURL creates a client with a custom base URL (for testing).
func NewMacroClientWithBaseURL(url string) *MacroClient {
	c := NewMacroClient()
	c.baseURL = url
	return c
}

// Macro returns the 30-day change of S&P 500, the dollar index, and gold.
func (c *MacroClient) Macro(ctx context.Context) (*Macro, error) {
	m := &Macro{Time: time.Now().UTC()}

	var lastErr error
	fetch := func(symbol string) *float64 {
		change, err := c.change30d(ctx, symbol)
		if err != nil {
			lastErr = err
			return nil
		}
		return change
	}

	m.SP500Change30dPct = fetch(symbolSP500)
	m.DXYChange30dPct = fetch(symbolDXY)
	m.GoldChange30dPct = fetch(symbolGold)

	if m.SP500Change30dPct == nil && m.DXYChange30dPct == nil && m.GoldChange30dPct == nil {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("macro: all symbols failed: %w", lastErr))
	}
	return m, nil
}

// change30d computes the percent change between the first and last daily
// close of roughly the past month.
func (c *MacroClient) change30d(ctx context.Context, symbol string) (*float64, error) {
	reqURL := fmt.Sprintf("%s/%s?interval=1d&range=1mo", c.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; compass/1.0)")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", symbol, resp.StatusCode)
	}

	var result yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", symbol, err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("%s: yahoo error: %s", symbol, result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: no data", symbol)
	}

	var closes []float64
	for _, v := range result.Chart.Result[0].Indicators.Quote[0].Close {
		if v != nil {
			closes = append(closes, *v)
		}
	}
	if len(closes) < 2 || closes[0] == 0 {
		return nil, fmt.Errorf("%s: not enough closes", symbol)
	}

	change := (closes[len(closes)-1] - closes[0]) / closes[0] * 100
	return &change, nil
}

// Yahoo API response types
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}
