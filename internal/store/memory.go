package store

import (
	"context"
	"sync"

	"github.com/psantana5/factbench/internal/report"
)

const defaultMemoryCapacity = 100

// MemoryStore keeps the most recent runs in a fixed-size ring buffer
type MemoryStore struct {
	runs    []*report.Result
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a memory store holding up to capacity runs
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{
		runs:    make([]*report.Result, 0, capacity),
		maxSize: capacity,
	}
}

// SaveRun appends r, evicting the oldest run when full
func (s *MemoryStore) SaveRun(_ context.Context, r *report.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.runs) >= s.maxSize {
		s.runs = s.runs[1:]
	}
	s.runs = append(s.runs, r)
	return nil
}

// GetRun retrieves a run by ID
func (s *MemoryStore) GetRun(_ context.Context, id string) (*report.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.runs {
		if r.RunID == id {
			return r, nil
		}
	}
	return nil, ErrRunNotFound
}

// ListRuns returns the most recent runs, newest first
func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]*report.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.runs)
	if limit <= 0 || limit > n {
		limit = n
	}

	result := make([]*report.Result, limit)
	for i := 0; i < limit; i++ {
		result[i] = s.runs[n-1-i]
	}
	return result, nil
}

// HealthCheck always succeeds
func (s *MemoryStore) HealthCheck(context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
