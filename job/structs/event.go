package structs

import "time"

type EventType string

const (
	EventJobStarted   EventType = "job_started"
	EventJobCompleted EventType = "job_completed"
	EventJobFailed    EventType = "job_failed"
	EventJobCancelled EventType = "job_cancelled"
	EventJobRetrying  EventType = "job_retrying"
)

// Event is a job lifecycle notification
type Event struct {
	Type      EventType    `json:"type"`
	Job       *JobResponse `json:"job"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewEvent snapshots job into an event of type t
func NewEvent(t EventType, job *Job) *Event {
	return &Event{Type: t, Job: job.Response(), Timestamp: now()}
}
