package structs

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ncobase/jobqueue/paging"
)

var validate = validator.New()

// JobRequest is the submission input
type JobRequest struct {
	JobType    JobType        `json:"job_type" validate:"required"`
	Payload    map[string]any `json:"payload"`
	Priority   *JobPriority   `json:"priority,omitempty"`
	MaxRetries *int           `json:"max_retries,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Validate checks the request shape and enum values
func (r *JobRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s: failed %q check", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	if !r.JobType.Valid() {
		return fmt.Errorf("unknown job type %q", r.JobType)
	}
	if r.Priority != nil && !r.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", *r.Priority)
	}
	return nil
}

// SortFields are the accepted list sort keys
var SortFields = []string{
	"created_at", "started_at", "completed_at", "priority", "status", "job_type", "retry_count",
}

// DefaultSortField is used when no valid sort key is given
const DefaultSortField = "created_at"

// ListParams filters and pages a job listing
type ListParams struct {
	Status  JobStatus `json:"status,omitempty" form:"status"`
	JobType JobType   `json:"job_type,omitempty" form:"job_type"`
	paging.Params
}

// Normalize validates filters and applies paging defaults
func (p *ListParams) Normalize() error {
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("unknown status %q", p.Status)
	}
	if p.JobType != "" && !p.JobType.Valid() {
		return fmt.Errorf("unknown job type %q", p.JobType)
	}
	p.Params = paging.NormalizeParams(p.Params, DefaultSortField, SortFields...)
	return nil
}

// JobList is one page of jobs
type JobList = paging.Result[*Job]

// QueueStats summarises job counts and worker usage
type QueueStats struct {
	PendingJobs   int64 `json:"pending_jobs"`
	RunningJobs   int64 `json:"running_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	CancelledJobs int64 `json:"cancelled_jobs"`
	RetryingJobs  int64 `json:"retrying_jobs"`
	TotalJobs     int64 `json:"total_jobs"`
	ActiveWorkers int   `json:"active_workers"`
	BusyWorkers   int64 `json:"busy_workers"`
	QueuedTasks   int64 `json:"queued_tasks"`
}

// NewQueueStats fills the per-status counters from counts
func NewQueueStats(counts map[JobStatus]int64) *QueueStats {
	s := &QueueStats{
		PendingJobs:   counts[StatusPending],
		RunningJobs:   counts[StatusRunning],
		CompletedJobs: counts[StatusCompleted],
		FailedJobs:    counts[StatusFailed],
		CancelledJobs: counts[StatusCancelled],
		RetryingJobs:  counts[StatusRetrying],
	}
	for _, n := range counts {
		s.TotalJobs += n
	}
	return s
}

// JobResponse is the externally visible view of a job; it omits the payload.
type JobResponse struct {
	ID           string         `json:"id"`
	JobType      JobType        `json:"job_type"`
	Status       JobStatus      `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Result       map[string]any `json:"result,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	RetryCount   int            `json:"retry_count"`
	MaxRetries   int            `json:"max_retries"`
	Priority     JobPriority    `json:"priority"`
}

// Response returns the external view of j
func (j *Job) Response() *JobResponse {
	c := j.Clone()
	return &JobResponse{
		ID:           c.ID,
		JobType:      c.JobType,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
		StartedAt:    c.StartedAt,
		CompletedAt:  c.CompletedAt,
		Result:       c.Result,
		ErrorMessage: c.ErrorMessage,
		RetryCount:   c.RetryCount,
		MaxRetries:   c.MaxRetries,
		Priority:     c.Priority,
	}
}

// SubmitResponse is returned when a job is accepted
type SubmitResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}
