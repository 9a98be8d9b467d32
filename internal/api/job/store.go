// Package job tracks asynchronous API work (backtests) in memory. The store
// evicts the oldest job at capacity and expires finished jobs after a TTL.
package job

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/compass/internal/core"
)

// Status represents job status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Job represents an async job.
type Job struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Status    Status      `json:"status"`
	Progress  int         `json:"progress"`
	Result    any         `json:"result,omitempty"`
	Error     *core.Error `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Store manages async jobs.
type Store struct {
	jobs    map[string]*Job
	order   []string // insertion order for capacity eviction
	maxSize int
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewStore creates a job store holding at most maxSize jobs, each kept for
// at most ttl after its last update.
func NewStore(maxSize int, ttl time.Duration) *Store {
	return &Store{
		jobs:    make(map[string]*Job),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Create creates a new pending job and returns it.
func (s *Store) Create(jobType string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Evict oldest if at capacity
	if len(s.jobs) >= s.maxSize && len(s.order) > 0 {
		oldest := s.order[0]
		delete(s.jobs, oldest)
		s.order = s.order[1:]
	}

	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)

	return job
}

// Get retrieves a copy of a job by ID.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, core.ErrNotFound
	}

	jobCopy := *job
	return &jobCopy, nil
}

// Update modifies a job under the store lock using an update function.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return core.ErrNotFound
	}

	fn(job)
	job.UpdatedAt = time.Now()
	return nil
}

// List returns copies of all jobs.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		result = append(result, *job)
	}
	return result
}

// Active counts jobs that are pending or running.
func (s *Store) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, job := range s.jobs {
		if job.Status == StatusPending || job.Status == StatusRunning {
			n++
		}
	}
	return n
}

// Cleanup removes jobs whose last update is older than the TTL. Pending and
// running jobs are never expired. Returns the number removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		job, ok := s.jobs[id]
		if !ok {
			continue
		}
		expired := job.UpdatedAt.Before(cutoff) &&
			job.Status != StatusPending && job.Status != StatusRunning
		if expired {
			delete(s.jobs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// StartCleanup runs Cleanup on the interval until ctx is cancelled.
func (s *Store) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}
