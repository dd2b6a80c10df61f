package job

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/ncobase/jobqueue/job/data/repository"
	"github.com/ncobase/jobqueue/job/structs"
	"github.com/ncobase/jobqueue/logging/observes"
	"go.opentelemetry.io/otel/attribute"
)

// process runs one dequeued job id. It is the worker pool's processor.
func (q *Queue) process(ctx context.Context, task any) error {
	id, ok := task.(string)
	if !ok {
		return fmt.Errorf("unexpected task type %T", task)
	}

	job, err := q.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			q.logger.Warn(ctx, "Queued job no longer exists", "job_id", id)
			return nil
		}
		q.logger.Error(ctx, "Failed to load queued job", "job_id", id, "error", err)
		return err
	}
	if !job.IsQueued() {
		// cancelled, or a duplicate queue entry for a job already handled
		q.logger.Debug(ctx, "Skipping job", "job_id", id, "status", job.Status)
		return nil
	}

	from := job.Status
	job.Start()
	claimed, err := q.repo.UpdateIf(ctx, job, from)
	if err != nil {
		q.logger.Error(ctx, "Failed to mark job running", "job_id", id, "error", err)
	} else if !claimed {
		q.logger.Debug(ctx, "Job changed before it started", "job_id", id)
		return nil
	}

	q.logger.Info(ctx, "Job started", "job_id", id, "job_type", job.JobType, "retry_count", job.RetryCount)
	q.notify(ctx, structs.EventJobStarted, job)

	ctx, span := observes.StartSpan(ctx, "job.execute",
		attribute.String("job.id", job.ID),
		attribute.String("job.type", string(job.JobType)),
		attribute.String("job.priority", string(job.Priority)),
		attribute.Int("job.retry_count", job.RetryCount),
	)
	result, runErr := q.run(ctx, job)
	observes.EndSpan(span, runErr)

	if runErr != nil {
		job.Fail(runErr.Error())
	} else {
		job.Complete(result)
	}

	// the outcome is recorded even if the pool is being torn down
	if err := q.repo.Update(context.WithoutCancel(ctx), job); err != nil {
		q.logger.Error(ctx, "Failed to store job result", "job_id", id, "status", job.Status, "error", err)
	}

	if runErr != nil {
		q.logger.Warn(ctx, "Job failed", "job_id", id, "job_type", job.JobType, "error", runErr)
		q.notify(ctx, structs.EventJobFailed, job)
		return runErr
	}
	q.logger.Info(ctx, "Job completed", "job_id", id, "job_type", job.JobType)
	q.notify(ctx, structs.EventJobCompleted, job)
	return nil
}

// run invokes the job's handler, converting a panic into an error
func (q *Queue) run(ctx context.Context, job *structs.Job) (result map[string]any, err error) {
	fn, err := q.handlers.For(job.JobType)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error(ctx, "Job handler panicked", "job_id", job.ID, "panic", r, "stack", string(debug.Stack()))
			result, err = nil, fmt.Errorf("job handler panicked: %v", r)
		}
	}()

	// handlers get a copy so a misbehaving one cannot alter the stored state
	return fn(ctx, job.Clone())
}
