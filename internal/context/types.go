// Package context fetches the auxiliary market inputs consumed by scoring
// and briefings. Every provider degrades to absence: a failed fetch returns
// a wrapped ErrProviderFailed and callers exclude the reading instead of
// substituting a default.
package context

import (
	"context"
	"time"
)

// FearGreed is one reading of the crypto fear & greed index.
type FearGreed struct {
	Value          float64   `json:"value"` // 0 (extreme fear) to 100 (extreme greed)
	Classification string    `json:"classification"`
	Time           time.Time `json:"time"`
}

// Global is the aggregate crypto market picture.
type Global struct {
	BTCDominancePct   float64   `json:"btc_dominance_pct"`
	TotalMarketCapUSD float64   `json:"total_market_cap_usd"`
	MarketCapChange24 float64   `json:"market_cap_change_24h_pct"`
	Time              time.Time `json:"time"`
}

// Derivatives is the futures positioning picture for one symbol.
// Fields are typed absences: a venue that fails to answer leaves nil.
type Derivatives struct {
	FundingRatePct *float64  `json:"funding_rate_pct,omitempty"`
	LongShortRatio *float64  `json:"long_short_ratio,omitempty"`
	Time           time.Time `json:"time"`
}

// Onchain carries the on-chain valuation inputs.
type Onchain struct {
	MVRV                *float64  `json:"mvrv,omitempty"`
	ReserveChange30dPct *float64  `json:"reserve_change_30d_pct,omitempty"`
	Time                time.Time `json:"time"`
}

// Macro is the traditional-market backdrop used by briefings.
type Macro struct {
	SP500Change30dPct *float64  `json:"sp500_change_30d_pct,omitempty"`
	DXYChange30dPct   *float64  `json:"dxy_change_30d_pct,omitempty"`
	GoldChange30dPct  *float64  `json:"gold_change_30d_pct,omitempty"`
	Time              time.Time `json:"time"`
}

// TrackRecord is the realized performance of one signal source.
type TrackRecord struct {
	Source       string  `json:"source"`
	TotalSignals int     `json:"total_signals"`
	WinRate      float64 `json:"win_rate"`
	AvgReturn    float64 `json:"avg_return"`
}

// FearGreedProvider serves the fear & greed index.
type FearGreedProvider interface {
	Current(ctx context.Context) (*FearGreed, error)
	History(ctx context.Context, days int) ([]FearGreed, error)
}

// GlobalProvider serves the aggregate market picture.
type GlobalProvider interface {
	Global(ctx context.Context) (*Global, error)
}

// DerivativesProvider serves futures positioning for a symbol.
type DerivativesProvider interface {
	Derivatives(ctx context.Context, symbol string) (*Derivatives, error)
}

// OnchainProvider serves on-chain valuation inputs.
type OnchainProvider interface {
	Onchain(ctx context.Context, symbol string) (*Onchain, error)
}

// MacroProvider serves the traditional-market backdrop.
type MacroProvider interface {
	Macro(ctx context.Context) (*Macro, error)
}

// TrackRecordProvider serves per-source signal performance.
type TrackRecordProvider interface {
	Record(ctx context.Context, source string) (*TrackRecord, error)
	Records(ctx context.Context) ([]TrackRecord, error)
}
