package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/martin/clipforge/internal/types"
)

// jobsSchema creates the jobs table. The full job record lives in a JSONB
// column; status and timestamps are promoted to real columns for querying.
const jobsSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id           UUID PRIMARY KEY,
	status       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	record       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_status_idx ON jobs (status);
`

// PostgresStore persists jobs in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and ensures the schema.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, jobsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure jobs schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// CreateJob inserts a new job record.
func (s *PostgresStore) CreateJob(ctx context.Context, job *types.Job) error {
	record, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (id, status, created_at, completed_at, record)
		 VALUES ($1, $2, $3, $4, $5)`,
		job.ID, string(job.Status), job.CreatedAt, job.CompletedAt, record,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJob returns the job by ID, or ErrNotFound.
func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	var record []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM jobs WHERE id = $1`, id,
	).Scan(&record)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job types.Job
	if err := json.Unmarshal(record, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

// UpdateJob replaces the stored record for the job's ID.
func (s *PostgresStore) UpdateJob(ctx context.Context, job *types.Job) error {
	record, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $2, completed_at = $3, record = $4 WHERE id = $1`,
		job.ID, string(job.Status), job.CompletedAt, record,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCancelRequested flags the record under a row lock, so the read-modify-
// write cannot race the worker's own updates.
func (s *PostgresStore) SetCancelRequested(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin cancel transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var record []byte
	err = tx.QueryRow(ctx,
		`SELECT record FROM jobs WHERE id = $1 FOR UPDATE`, id,
	).Scan(&record)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock job for cancel: %w", err)
	}

	var job types.Job
	if err := json.Unmarshal(record, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	if job.Terminal() || job.CancelRequested {
		return &job, nil
	}

	job.CancelRequested = true
	job.AddLog("cancellation requested")
	job.UpdatedAt = time.Now().UTC()

	updated, err := json.Marshal(&job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE jobs SET record = $2 WHERE id = $1`, id, updated,
	); err != nil {
		return nil, fmt.Errorf("failed to flag job for cancel: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancel flag: %w", err)
	}
	return &job, nil
}

// DeleteJob removes the job record.
func (s *PostgresStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListJobs returns all jobs, newest first.
func (s *PostgresStore) ListJobs(ctx context.Context) ([]*types.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM jobs ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*types.Job
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		var job types.Job
		if err := json.Unmarshal(record, &job); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// DeleteTerminalBefore removes terminal jobs completed before cutoff.
func (s *PostgresStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM jobs
		 WHERE status IN ('succeeded', 'failed', 'cancelled')
		   AND completed_at IS NOT NULL
		   AND completed_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
