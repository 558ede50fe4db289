// Package db provides job persistence. Two implementations exist: an
// in-memory store for development and tests, and PostgreSQL for deployments
// that need durability across restarts.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/martin/clipforge/internal/types"
)

// ErrNotFound is returned when a job ID has no record.
var ErrNotFound = errors.New("job not found")

// Store persists jobs. Implementations must be safe for concurrent use.
type Store interface {
	// CreateJob inserts a new job record.
	CreateJob(ctx context.Context, job *types.Job) error
	// GetJob returns the job by ID, or ErrNotFound.
	GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
	// UpdateJob replaces the stored record for the job's ID, or ErrNotFound.
	UpdateJob(ctx context.Context, job *types.Job) error
	// SetCancelRequested atomically flags the stored record for cancellation
	// without touching its other fields, and returns the updated job.
	// Terminal records are returned unchanged.
	SetCancelRequested(ctx context.Context, id uuid.UUID) (*types.Job, error)
	// DeleteJob removes the job record, or ErrNotFound.
	DeleteJob(ctx context.Context, id uuid.UUID) error
	// ListJobs returns all jobs, newest first.
	ListJobs(ctx context.Context) ([]*types.Job, error)
	// DeleteTerminalBefore removes terminal jobs whose completion is older
	// than cutoff and returns how many were removed.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
	// Close releases store resources.
	Close()
}
