package model

import "time"

// JobStatus represents the current state of a background discovery job.
type JobStatus string

const (
	JobStatusQueued   JobStatus = "queued"
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
)

// Job is a durable background discovery run. Leads and Count are populated
// when the job completes; Error is set when it fails.
type Job struct {
	ID         string           `json:"id"`
	Status     JobStatus        `json:"status"`
	Request    DiscoveryRequest `json:"request"`
	Leads      []EnrichedLead   `json:"leads,omitempty"`
	Count      int              `json:"count"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusComplete || j.Status == JobStatusFailed
}
