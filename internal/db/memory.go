package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/martin/clipforge/internal/types"
)

// MemoryStore keeps jobs in process memory. Jobs are cloned on every read and
// write so callers never share state with the stored copies.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*types.Job
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*types.Job)}
}

// CreateJob inserts a new job record.
func (s *MemoryStore) CreateJob(ctx context.Context, job *types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

// GetJob returns the job by ID, or ErrNotFound.
func (s *MemoryStore) GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

// UpdateJob replaces the stored record for the job's ID.
func (s *MemoryStore) UpdateJob(ctx context.Context, job *types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// SetCancelRequested flags the stored record in place, so a concurrent
// UpdateJob from the worker can never be clobbered by a stale copy.
func (s *MemoryStore) SetCancelRequested(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !job.Terminal() && !job.CancelRequested {
		job.CancelRequested = true
		job.AddLog("cancellation requested")
		job.UpdatedAt = time.Now().UTC()
	}
	return job.Clone(), nil
}

// DeleteJob removes the job record.
func (s *MemoryStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

// ListJobs returns all jobs, newest first.
func (s *MemoryStore) ListJobs(ctx context.Context) ([]*types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]*types.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.Clone())
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// DeleteTerminalBefore removes terminal jobs completed before cutoff.
func (s *MemoryStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}
