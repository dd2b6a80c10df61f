// Package repository persists jobs. Implementations are safe for concurrent
// use and make each operation atomic per job.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ncobase/jobqueue/job/structs"
)

// ErrNotFound is returned when no job has the requested id
var ErrNotFound = errors.New("job not found")

// JobRepository is the job store contract
type JobRepository interface {
	// Create inserts a new job
	Create(ctx context.Context, job *structs.Job) error
	// GetByID returns the job or ErrNotFound
	GetByID(ctx context.Context, id string) (*structs.Job, error)
	// Update replaces every mutable field of the stored job
	Update(ctx context.Context, job *structs.Job) error
	// UpdateIf replaces the stored job only while its current status is one
	// of from. It reports whether the write happened.
	UpdateIf(ctx context.Context, job *structs.Job, from ...structs.JobStatus) (bool, error)
	// Delete removes a job and reports whether it existed
	Delete(ctx context.Context, id string) (bool, error)
	// List returns one filtered, sorted page and the unpaged total. Params
	// must already be normalized.
	List(ctx context.Context, params *structs.ListParams) ([]*structs.Job, int64, error)
	// GetPending returns pending and retrying jobs, highest priority first
	// then oldest first. limit <= 0 means no limit.
	GetPending(ctx context.Context, limit int) ([]*structs.Job, error)
	// GetByStatus returns all jobs in status, oldest first
	GetByStatus(ctx context.Context, status structs.JobStatus) ([]*structs.Job, error)
	// CountByStatus returns the number of jobs per status
	CountByStatus(ctx context.Context) (map[structs.JobStatus]int64, error)
	// CleanupOlderThan deletes terminal jobs completed before now minus days
	CleanupOlderThan(ctx context.Context, days int) (int64, error)
	// CreateSchema creates tables, collections and indexes
	CreateSchema(ctx context.Context) error
}

// cutoff returns the completion time before which jobs are removed
func cutoff(days int) (time.Time, error) {
	if days < 0 {
		return time.Time{}, errors.New("days must not be negative")
	}
	return time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour), nil
}
