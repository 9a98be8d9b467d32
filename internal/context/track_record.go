package context

import (
	"context"

	"github.com/newthinker/compass/internal/storage/signal"
)

// Signal sources with track records worth reporting.
var trackedSources = []string{"composite", "pattern", "backtest"}

// TrackRecordService computes per-source performance from the resolved
// records in the signal store.
type TrackRecordService struct {
	store signal.Store
}

// NewTrackRecordService creates a track record service.
func NewTrackRecordService(store signal.Store) *TrackRecordService {
	return &TrackRecordService{store: store}
}

// Record returns the track record for one source.
func (s *TrackRecordService) Record(ctx context.Context, source string) (*TrackRecord, error) {
	stats, err := s.store.Stats(ctx, source)
	if err != nil {
		return nil, err
	}
	return &TrackRecord{
		Source:       source,
		TotalSignals: stats.Total,
		WinRate:      stats.WinRate,
		AvgReturn:    stats.AvgReturn,
	}, nil
}

// Records returns track records for all tracked sources, skipping sources
// with no resolved signals yet.
func (s *TrackRecordService) Records(ctx context.Context) ([]TrackRecord, error) {
	var records []TrackRecord
	for _, source := range trackedSources {
		rec, err := s.Record(ctx, source)
		if err != nil {
			return nil, err
		}
		if rec.TotalSignals == 0 {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}
