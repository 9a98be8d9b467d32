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

const fearGreedBaseURL = "https://api.alternative.me"

// FearGreedClient fetches the fear & greed index from alternative.me.
type FearGreedClient struct {
	client  *http.Client
	baseURL string
}

// NewFearGreedClient creates a fear & greed client.
func NewFearGreedClient() *FearGreedClient {
	return &FearGreedClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: fearGreedBaseURL,
	}
}

// NewFearGreedClientWithBaseURL creates a client with a custom base URL (for testing).
func NewFearGreedClientWithBaseURL(url string) *FearGreedClient {
	c := NewFearGreedClient()
	c.baseURL = url
	return c
}

// Current returns the latest index reading.
func (c *FearGreedClient) Current(ctx context.Context) (*FearGreed, error) {
	readings, err := c.fetch(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("fear & greed: empty response"))
	}
	return &readings[0], nil
}

// History returns up to days past readings, newest first.
func (c *FearGreedClient) History(ctx context.Context, days int) ([]FearGreed, error) {
	if days <= 0 {
		days = 30
	}
	return c.fetch(ctx, days)
}

func (c *FearGreedClient) fetch(ctx context.Context, limit int) ([]FearGreed, error) {
	url := fmt.Sprintf("%s/fng/?limit=%d&format=json", c.baseURL, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("fear & greed: unexpected status %d", resp.StatusCode))
	}

	var result fngResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}

	readings := make([]FearGreed, 0, len(result.Data))
	for _, d := range result.Data {
		value, err := strconv.ParseFloat(d.Value, 64)
		if err != nil {
			continue
		}
		ts, _ := strconv.ParseInt(d.Timestamp, 10, 64)
		readings = append(readings, FearGreed{
			Value:          value,
			Classification: d.ValueClassification,
			Time:           time.Unix(ts, 0).UTC(),
		})
	}
	return readings, nil
}

// alternative.me API response types
type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}
