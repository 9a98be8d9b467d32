package signal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/compass/internal/core"
)

// DefaultCapacity bounds the in-memory store when no capacity is configured.
const DefaultCapacity = 1000

// MemoryStore is an in-memory, capacity-bounded signal history. The oldest
// records are evicted once capacity is exceeded.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record // oldest first
	byID    map[string]int
	maxSize int
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = DefaultCapacity
	}
	return &MemoryStore{
		records: make([]Record, 0, maxSize),
		byID:    make(map[string]int, maxSize),
		maxSize: maxSize,
	}
}

// Save adds a record to the store, assigning a uuid when the ID is empty.
func (m *MemoryStore) Save(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Outcome == "" {
		rec.Outcome = core.OutcomePending
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	m.records = append(m.records, rec)
	if len(m.records) > m.maxSize {
		m.records = m.records[len(m.records)-m.maxSize:]
	}
	m.reindex()

	return nil
}

// GetByID retrieves a record by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	rec := m.records[i]
	return &rec, nil
}

// List returns records matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []Record{}
	for i := len(m.records) - 1; i >= 0; i-- {
		if matches(m.records[i], filter) {
			result = append(result, m.records[i])
		}
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []Record{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching records.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rec := range m.records {
		if matches(rec, filter) {
			count++
		}
	}
	return count, nil
}

// UpdateOutcomes resolves pending records through the supplied callback.
func (m *MemoryStore) UpdateOutcomes(ctx context.Context, resolve func(Record) (core.Outcome, *float64)) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	resolved := 0
	now := time.Now()
	for i := range m.records {
		if m.records[i].Outcome != core.OutcomePending {
			continue
		}
		outcome, ret := resolve(m.records[i])
		if outcome == core.OutcomePending || outcome == "" {
			continue
		}
		m.records[i].Outcome = outcome
		m.records[i].OutcomeReturn = ret
		t := now
		m.records[i].ResolvedAt = &t
		resolved++
	}
	return resolved, nil
}

// Stats aggregates resolved outcomes for a source. Pending records are
// excluded from the totals.
func (m *MemoryStore) Stats(ctx context.Context, source string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats Stats
	var sum float64
	withReturn := 0
	for _, rec := range m.records {
		if source != "" && rec.Source != source {
			continue
		}
		switch rec.Outcome {
		case core.OutcomeWin:
			stats.Wins++
		case core.OutcomeLoss:
			stats.Losses++
		case core.OutcomeFlat:
			stats.Flat++
		default:
			continue
		}
		stats.Total++
		if rec.OutcomeReturn != nil {
			sum += *rec.OutcomeReturn
			withReturn++
		}
	}

	if stats.Total > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Total) * 100
	}
	if withReturn > 0 {
		stats.AvgReturn = sum / float64(withReturn)
	}
	return stats, nil
}

func (m *MemoryStore) reindex() {
	for k := range m.byID {
		delete(m.byID, k)
	}
	for i, rec := range m.records {
		m.byID[rec.ID] = i
	}
}

func matches(rec Record, filter ListFilter) bool {
	if filter.Symbol != "" && rec.Symbol != filter.Symbol {
		return false
	}
	if filter.Source != "" && rec.Source != filter.Source {
		return false
	}
	if filter.Pattern != "" && rec.Pattern != filter.Pattern {
		return false
	}
	if filter.Kind != "" && rec.Kind != filter.Kind {
		return false
	}
	if filter.Outcome != "" && rec.Outcome != filter.Outcome {
		return false
	}
	if !filter.From.IsZero() && rec.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && rec.CreatedAt.After(filter.To) {
		return false
	}
	return true
}
