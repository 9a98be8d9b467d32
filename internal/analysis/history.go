package analysis

import (
	"context"

	"github.com/newthinker/compass/internal/pattern"
	"github.com/newthinker/compass/internal/storage/signal"
)

// StoreHistory serves a symbol's past pattern firings from the signal store
// so the pattern engine can annotate new hits with their track record.
type StoreHistory struct {
	store signal.Store
}

// NewStoreHistory wraps a signal store as a pattern history provider.
func NewStoreHistory(store signal.Store) *StoreHistory {
	return &StoreHistory{store: store}
}

// Occurrences lists past firings of the pattern type, newest first. The
// store tracks a single evaluation-window return per record; it stands in
// for every horizon the consumer asks about.
func (h *StoreHistory) Occurrences(ctx context.Context, symbol string, pt pattern.Type, limit int) ([]pattern.Occurrence, error) {
	records, err := h.store.List(ctx, signal.ListFilter{
		Symbol:  symbol,
		Source:  "pattern",
		Pattern: string(pt),
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	occurrences := make([]pattern.Occurrence, 0, len(records))
	for _, rec := range records {
		occurrences = append(occurrences, pattern.Occurrence{
			Time:      rec.CreatedAt,
			Return7d:  rec.OutcomeReturn,
			Return30d: rec.OutcomeReturn,
		})
	}
	return occurrences, nil
}
