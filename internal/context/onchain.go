package context

import (
	"context"
	"time"
)

// StaticOnchain serves on-chain inputs from configured values. No free API
// exposes MVRV or exchange reserves reliably, so the values come from
// config (or an operator-maintained file) behind the same interface a live
// provider would implement.
type StaticOnchain struct {
	mvrv                *float64
	reserveChange30dPct *float64
}

// NewStaticOnchain creates a static provider. Nil inputs stay absent.
func NewStaticOnchain(mvrv, reserveChange30dPct *float64) *StaticOnchain {
	return &StaticOnchain{
		mvrv:                mvrv,
		reserveChange30dPct: reserveChange30dPct,
	}
}

// Onchain returns the configured readings. The symbol is ignored; the
// static values describe the market the operator configured them for.
func (s *StaticOnchain) Onchain(ctx context.Context, symbol string) (*Onchain, error) {
	return &Onchain{
		MVRV:                s.mvrv,
		ReserveChange30dPct: s.reserveChange30dPct,
		Time:                time.Now().UTC(),
	}, nil
}
