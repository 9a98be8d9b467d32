package context

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/compass/internal/core"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// GlobalClient fetches the aggregate market picture from CoinGecko.
type GlobalClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewGlobalClient creates a CoinGecko global client. The API key is
// optional; the free tier works without one.
func NewGlobalClient(apiKey string) *GlobalClient {
	return &GlobalClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: coingeckoBaseURL,
		apiKey:  apiKey,
	}
}

// NewGlobalClientWithBaseURL creates a client with a custom base URL (for testing).
func NewGlobalClientWithBaseURL(url string) *GlobalClient {
	c := NewGlobalClient("")
	c.baseURL = url
	return c
}

// Global returns BTC dominance and total market cap.
func (c *GlobalClient) Global(ctx context.Context) (*Global, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/global", nil)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("coingecko global: unexpected status %d", resp.StatusCode))
	}

	var result globalResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}

	return &Global{
		BTCDominancePct:   result.Data.MarketCapPercentage["btc"],
		TotalMarketCapUSD: result.Data.TotalMarketCap["usd"],
		MarketCapChange24: result.Data.MarketCapChangePct24h,
		Time:              time.Now().UTC(),
	}, nil
}

// CoinGecko API response types
type globalResponse struct {
	Data struct {
		TotalMarketCap        map[string]float64 `json:"total_market_cap"`
		MarketCapPercentage   map[string]float64 `json:"market_cap_percentage"`
		MarketCapChangePct24h float64            `json:"market_cap_change_percentage_24h_usd"`
	} `json:"data"`
}
