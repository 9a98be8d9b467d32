package context

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/compass/internal/core"
)

const binanceFuturesBaseURL = "https://fapi.binance.com"

// DerivativesClient fetches futures positioning from Binance public
// endpoints. Funding rate and long/short ratio fail independently; the
// reading only errors when both are unavailable.
type DerivativesClient struct {
	client  *http.Client
	baseURL string
}

// NewDerivativesClient creates a derivatives client.
func NewDerivativesClient() *DerivativesClient {
	return &DerivativesClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: binanceFuturesBaseURL,
	}
}

// NewDerivativesClientWithBaseURL creates a client with a custom base URL (for testing).
func NewDerivativesClientWithBaseURL(url string) *DerivativesClient {
	c := NewDerivativesClient()
	c.baseURL = url
	return c
}

// Derivatives returns funding rate and long/short ratio for the symbol.
func (c *DerivativesClient) Derivatives(ctx context.Context, symbol string) (*Derivatives, error) {
	d := &Derivatives{Time: time.Now().UTC()}

	funding, fundingErr := c.fundingRate(ctx, symbol)
	if fundingErr == nil {
		d.FundingRatePct = funding
	}

	ratio, ratioErr := c.longShortRatio(ctx, symbol)
	if ratioErr == nil {
		d.LongShortRatio = ratio
	}

	if fundingErr != nil && ratioErr != nil {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("derivatives %s: funding: %v; long/short: %v", symbol, fundingErr, ratioErr))
	}
	return d, nil
}

// fundingRate returns the most recent funding rate as a percentage.
func (c *DerivativesClient) fundingRate(ctx context.Context, symbol string) (*float64, error) {
	url := fmt.Sprintf("%s/fapi/v1/fundingRate?symbol=%s&limit=1", c.baseURL, symbol)

	var rows []struct {
		FundingRate string `json:"fundingRate"`
		FundingTime int64  `json:"fundingTime"`
	}
	if err := c.getJSON(ctx, url, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty funding rate response")
	}

	rate, err := strconv.ParseFloat(rows[0].FundingRate, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing funding rate: %w", err)
	}
	pct := rate * 100
	return &pct, nil
}

// longShortRatio returns the latest global long/short accounts ratio.
func (c *DerivativesClient) longShortRatio(ctx context.Context, symbol string) (*float64, error) {
	url := fmt.Sprintf("%s/futures/data/globalLongShortAccountRatio?symbol=%s&period=1h&limit=1",
		c.baseURL, symbol)

	var rows []struct {
		LongShortRatio string `json:"longShortRatio"`
	}
	if err := c.getJSON(ctx, url, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty long/short response")
	}

	ratio, err := strconv.ParseFloat(rows[0].LongShortRatio, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing long/short ratio: %w", err)
	}
	return &ratio, nil
}

func (c *DerivativesClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
