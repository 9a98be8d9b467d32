package signal

import (
	"context"
	"time"

	"github.com/newthinker/compass/internal/core"
)

// Record is one persisted signal occurrence with its eventual outcome.
// OutcomeReturn is the evaluation-window return in percent, set when the
// record resolves.
type Record struct {
	ID            string          `json:"id"`
	Symbol        string          `json:"symbol"`
	Source        string          `json:"source"`  // "composite", "pattern", ...
	Pattern       string          `json:"pattern"` // pattern type when Source is "pattern"
	Kind          core.SignalKind `json:"kind"`
	Direction     core.Direction  `json:"direction"`
	Score         float64         `json:"score"`
	Confidence    float64         `json:"confidence"`
	Price         float64         `json:"price"`
	Outcome       core.Outcome    `json:"outcome"`
	OutcomeReturn *float64        `json:"outcome_return,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
}

// Store defines the interface for signal history persistence.
type Store interface {
	// Save persists a record, assigning an ID when absent.
	Save(ctx context.Context, rec Record) error

	// GetByID retrieves a record by its ID.
	GetByID(ctx context.Context, id string) (*Record, error)

	// List retrieves records matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]Record, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)

	// UpdateOutcomes runs resolve over every pending record. A non-pending
	// outcome returned by resolve is written back along with the return and
	// resolution time. Returns the number of records resolved.
	UpdateOutcomes(ctx context.Context, resolve func(Record) (core.Outcome, *float64)) (int, error)

	// Stats aggregates resolved outcomes for one source ("" means all).
	Stats(ctx context.Context, source string) (Stats, error)
}

// ListFilter defines criteria for listing records.
type ListFilter struct {
	Symbol  string
	Source  string
	Pattern string
	Kind    core.SignalKind
	Outcome core.Outcome
	From    time.Time
	To      time.Time
	Limit   int
	Offset  int
}

// Stats is the aggregate track record for a signal source.
type Stats struct {
	Total     int     `json:"total"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Flat      int     `json:"flat"`
	WinRate   float64 `json:"win_rate"`   // percent of resolved records that won
	AvgReturn float64 `json:"avg_return"` // mean outcome return over resolved records
}
