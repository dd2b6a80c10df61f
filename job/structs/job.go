// Package structs defines job domain models.
package structs

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMaxRetries applies when a request does not set max_retries
const DefaultMaxRetries = 3

type JobType string

const (
	TypeBulkImport        JobType = "bulk_import"
	TypeBulkExport        JobType = "bulk_export"
	TypeDataMigration     JobType = "data_migration"
	TypeFileProcessing    JobType = "file_processing"
	TypeEmailNotification JobType = "email_notification"
	TypeReportGeneration  JobType = "report_generation"
)

// JobTypes lists every job type
var JobTypes = []JobType{
	TypeBulkImport,
	TypeBulkExport,
	TypeDataMigration,
	TypeFileProcessing,
	TypeEmailNotification,
	TypeReportGeneration,
}

func (t JobType) Valid() bool {
	for _, v := range JobTypes {
		if t == v {
			return true
		}
	}
	return false
}

type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
	StatusRetrying  JobStatus = "retrying"
)

// JobStatuses lists every status
var JobStatuses = []JobStatus{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
	StatusRetrying,
}

func (s JobStatus) Valid() bool {
	for _, v := range JobStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further automatic transition follows s
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// TerminalStatuses are the statuses eligible for cleanup
var TerminalStatuses = []JobStatus{StatusCompleted, StatusFailed, StatusCancelled}

// QueuedStatuses are the statuses waiting for a worker
var QueuedStatuses = []JobStatus{StatusPending, StatusRetrying}

type JobPriority string

const (
	PriorityLow      JobPriority = "low"
	PriorityNormal   JobPriority = "normal"
	PriorityHigh     JobPriority = "high"
	PriorityCritical JobPriority = "critical"
)

// Rank orders priorities numerically; stores sort on it.
func (p JobPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityNormal:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 0
	}
}

func (p JobPriority) Valid() bool {
	return p.Rank() > 0
}

// Job is a unit of background work and its lifecycle state.
type Job struct {
	ID           string         `json:"id" bson:"_id"`
	JobType      JobType        `json:"job_type" bson:"job_type"`
	Status       JobStatus      `json:"status" bson:"status"`
	Payload      map[string]any `json:"payload" bson:"payload"`
	Result       map[string]any `json:"result,omitempty" bson:"result,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	RetryCount   int            `json:"retry_count" bson:"retry_count"`
	MaxRetries   int            `json:"max_retries" bson:"max_retries"`
	Priority     JobPriority    `json:"priority" bson:"priority"`
}

// NewJob builds a pending job from a request. defaultMaxRetries applies
// when the request leaves max_retries unset.
func NewJob(req *JobRequest, defaultMaxRetries int) *Job {
	priority := PriorityNormal
	if req.Priority != nil {
		priority = *req.Priority
	}
	maxRetries := defaultMaxRetries
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}
	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	return &Job{
		ID:         uuid.NewString(),
		JobType:    req.JobType,
		Status:     StatusPending,
		Payload:    payload,
		CreatedAt:  now(),
		MaxRetries: maxRetries,
		Priority:   priority,
	}
}

// Start marks the job running. An error left by a previous attempt is cleared.
func (j *Job) Start() {
	t := now()
	j.Status = StatusRunning
	j.StartedAt = &t
	j.CompletedAt = nil
	j.ErrorMessage = nil
}

// Complete marks the job completed with result
func (j *Job) Complete(result map[string]any) {
	t := now()
	j.Status = StatusCompleted
	j.Result = result
	j.ErrorMessage = nil
	j.CompletedAt = &t
}

// Fail marks the job failed with message
func (j *Job) Fail(message string) {
	t := now()
	j.Status = StatusFailed
	j.Result = nil
	j.ErrorMessage = &message
	j.CompletedAt = &t
}

// Cancel marks the job cancelled
func (j *Job) Cancel() {
	t := now()
	j.Status = StatusCancelled
	j.CompletedAt = &t
}

// CanRetry reports whether Retry may be applied
func (j *Job) CanRetry() bool {
	return (j.Status == StatusFailed || j.Status == StatusRetrying) && j.RetryCount < j.MaxRetries
}

// Retry consumes one retry. The job becomes retrying while attempts remain,
// otherwise it stays failed and is stamped completed so cleanup can reach it.
// Callers check CanRetry first.
func (j *Job) Retry() {
	j.RetryCount++
	j.StartedAt = nil
	if j.RetryCount < j.MaxRetries {
		j.Status = StatusRetrying
		j.ErrorMessage = nil
		j.CompletedAt = nil
		return
	}
	t := now()
	j.Status = StatusFailed
	j.CompletedAt = &t
}

func (j *Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

func (j *Job) IsRunning() bool {
	return j.Status == StatusRunning
}

// IsQueued reports whether the job waits for a worker
func (j *Job) IsQueued() bool {
	return j.Status == StatusPending || j.Status == StatusRetrying
}

// Clone returns a copy safe to mutate independently of j.
func (j *Job) Clone() *Job {
	c := *j
	c.Payload = cloneMap(j.Payload)
	c.Result = cloneMap(j.Result)
	if j.ErrorMessage != nil {
		msg := *j.ErrorMessage
		c.ErrorMessage = &msg
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// now is truncated to milliseconds, the coarsest precision of any store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
