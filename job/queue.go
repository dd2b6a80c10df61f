// Package job coordinates background job submission, execution and storage.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ncobase/jobqueue/concurrency/worker"
	"github.com/ncobase/jobqueue/job/data/repository"
	"github.com/ncobase/jobqueue/job/handlers"
	"github.com/ncobase/jobqueue/job/notifier"
	"github.com/ncobase/jobqueue/job/structs"
	"github.com/ncobase/jobqueue/logging/logger"
	"github.com/ncobase/jobqueue/paging"
)

var (
	// ErrUnavailable means the queue or its store cannot take the request
	ErrUnavailable = errors.New("job system unavailable")
	// ErrInvalidRequest wraps submission validation failures
	ErrInvalidRequest = errors.New("invalid job request")
	// ErrNotFound is returned for unknown job ids
	ErrNotFound = repository.ErrNotFound
)

// Config controls queue behaviour
type Config struct {
	MaxWorkers        int
	DefaultMaxRetries int
	// RecoveryLimit caps the jobs re-queued on Start; 0 recovers all.
	RecoveryLimit int
	// Timeout bounds one job execution, handler included; 0 disables it.
	Timeout time.Duration
}

// DefaultConfig returns the default queue configuration
func DefaultConfig() *Config {
	return &Config{MaxWorkers: 4, DefaultMaxRetries: structs.DefaultMaxRetries}
}

type state int

const (
	stateNew state = iota
	stateRunning
	stateStopped
)

// Queue accepts jobs, persists them and hands them to a fixed worker pool in
// submission order.
type Queue struct {
	repo     repository.JobRepository
	handlers *handlers.Set
	notifier notifier.Notifier
	logger   *logger.Logger
	cfg      Config
	pool     *worker.Pool

	stateMu sync.RWMutex
	state   state

	// mu serialises cancel and retry read-modify-write cycles
	mu sync.Mutex
}

// NewQueue builds a queue and its worker pool. n may be nil.
func NewQueue(repo repository.JobRepository, set *handlers.Set, n notifier.Notifier, cfg *Config, l *logger.Logger) (*Queue, error) {
	if repo == nil {
		return nil, errors.New("job: repository is required")
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("job: %w", err)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.DefaultMaxRetries < 0 {
		return nil, errors.New("job: default max retries must not be negative")
	}
	if cfg.RecoveryLimit < 0 {
		return nil, errors.New("job: recovery limit must not be negative")
	}
	if l == nil {
		l = logger.StdLogger()
	}

	q := &Queue{
		repo:     repo,
		handlers: set,
		notifier: n,
		logger:   l,
		cfg:      *cfg,
	}
	pool, err := worker.NewPool(&worker.Config{MaxWorkers: cfg.MaxWorkers, TaskTimeout: cfg.Timeout}, worker.ProcessorFunc(q.process))
	if err != nil {
		return nil, fmt.Errorf("job: %w", err)
	}
	q.pool = pool
	return q, nil
}

// Start re-queues pending and retrying jobs left in the store, highest
// priority first, then starts the workers. Submissions are accepted once
// Start returns.
func (q *Queue) Start(ctx context.Context) error {
	q.stateMu.Lock()
	defer q.stateMu.Unlock()

	switch q.state {
	case stateRunning:
		return nil
	case stateStopped:
		return fmt.Errorf("%w: queue stopped", ErrUnavailable)
	}

	jobs, err := q.repo.GetPending(ctx, q.cfg.RecoveryLimit)
	if err != nil {
		return fmt.Errorf("%w: recover jobs: %v", ErrUnavailable, err)
	}
	for _, j := range jobs {
		if err := q.pool.Submit(j.ID); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if err := q.pool.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	q.state = stateRunning

	q.logger.Info(ctx, "Job queue started", "workers", q.pool.Workers(), "recovered", len(jobs))
	return nil
}

// Stop refuses new submissions and waits for the workers to drain the queue,
// or for ctx to end. Jobs not reached stay pending in the store.
func (q *Queue) Stop(ctx context.Context) error {
	q.stateMu.Lock()
	if q.state == stateStopped {
		q.stateMu.Unlock()
		return nil
	}
	q.state = stateStopped
	q.stateMu.Unlock()

	err := q.pool.Stop(ctx)
	if err != nil {
		q.logger.Warn(ctx, "Job queue stopped before draining", "error", err)
		return err
	}
	q.logger.Info(ctx, "Job queue stopped")
	return nil
}

// Running reports whether the queue accepts submissions
func (q *Queue) Running() bool {
	q.stateMu.RLock()
	defer q.stateMu.RUnlock()
	return q.state == stateRunning
}

// Submit validates req, stores a pending job and queues it. It returns the
// new job id.
func (q *Queue) Submit(ctx context.Context, req *structs.JobRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	q.stateMu.RLock()
	defer q.stateMu.RUnlock()
	if q.state != stateRunning {
		return "", fmt.Errorf("%w: queue not running", ErrUnavailable)
	}

	job := structs.NewJob(req, q.cfg.DefaultMaxRetries)
	if err := q.repo.Create(ctx, job); err != nil {
		q.logger.Error(ctx, "Failed to store job", "job_id", job.ID, "error", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := q.pool.Submit(job.ID); err != nil {
		q.logger.Error(ctx, "Failed to queue job", "job_id", job.ID, "error", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	q.logger.Info(ctx, "Job submitted", "job_id", job.ID, "job_type", job.JobType, "priority", job.Priority)
	return job.ID, nil
}

// Status returns the current state of a job, read from the store
func (q *Queue) Status(ctx context.Context, id string) (*structs.Job, error) {
	job, err := q.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return job, nil
}

// Cancel cancels a job that is waiting for a worker. Running and finished
// jobs cannot be cancelled; false is returned for them and for unknown ids.
func (q *Queue) Cancel(ctx context.Context, id string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !job.IsQueued() {
		return false, nil
	}

	job.Cancel()
	ok, err := q.repo.UpdateIf(ctx, job, structs.StatusPending, structs.StatusRetrying)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		// a worker picked it up first
		return false, nil
	}

	q.logger.Info(ctx, "Job cancelled", "job_id", id)
	q.notify(ctx, structs.EventJobCancelled, job)
	return true, nil
}

// Retry consumes one retry of a failed job and re-queues it while attempts
// remain. A job that reaches its retry ceiling is marked failed; the call
// still reports true.
func (q *Queue) Retry(ctx context.Context, id string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.Running() {
		return false, fmt.Errorf("%w: queue not running", ErrUnavailable)
	}

	job, err := q.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !job.CanRetry() {
		return false, nil
	}

	from := job.Status
	job.Retry()
	ok, err := q.repo.UpdateIf(ctx, job, from)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return false, nil
	}

	if job.Status != structs.StatusRetrying {
		q.logger.Info(ctx, "Job reached retry limit", "job_id", id, "retry_count", job.RetryCount)
		q.notify(ctx, structs.EventJobFailed, job)
		return true, nil
	}

	q.logger.Info(ctx, "Job retrying", "job_id", id, "retry_count", job.RetryCount, "max_retries", job.MaxRetries)
	q.notify(ctx, structs.EventJobRetrying, job)
	if err := q.pool.Submit(job.ID); err != nil {
		// stays retrying in the store and is recovered on the next start
		q.logger.Warn(ctx, "Failed to queue retried job", "job_id", id, "error", err)
	}
	return true, nil
}

// Stats returns job counts per status and worker usage
func (q *Queue) Stats(ctx context.Context) (*structs.QueueStats, error) {
	counts, err := q.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	stats := structs.NewQueueStats(counts)

	m := q.pool.GetMetrics()
	if q.Running() {
		stats.ActiveWorkers = m.Workers
	}
	stats.BusyWorkers = m.ActiveWorkers
	stats.QueuedTasks = m.PendingTasks
	return stats, nil
}

// Cleanup deletes finished jobs completed more than olderThanDays days ago
func (q *Queue) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 0 {
		return 0, fmt.Errorf("%w: days must not be negative", ErrInvalidRequest)
	}
	n, err := q.repo.CleanupOlderThan(ctx, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	q.logger.Info(ctx, "Cleaned up old jobs", "deleted", n, "older_than_days", olderThanDays)
	return n, nil
}

// List returns one page of jobs matching params
func (q *Queue) List(ctx context.Context, params *structs.ListParams) (*structs.JobList, error) {
	if params == nil {
		params = &structs.ListParams{}
	}
	if err := params.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	list, err := paging.Paginate(params.Params, func(limit, offset int) ([]*structs.Job, int64, error) {
		return q.repo.List(ctx, params)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return list, nil
}

// notify emits an event; delivery failures are logged and otherwise ignored
func (q *Queue) notify(ctx context.Context, t structs.EventType, job *structs.Job) {
	if q.notifier == nil {
		return
	}
	if err := q.notifier.Notify(context.WithoutCancel(ctx), structs.NewEvent(t, job)); err != nil {
		q.logger.Warn(ctx, "Failed to send job event", "event", t, "job_id", job.ID, "error", err)
	}
}
