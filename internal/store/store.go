package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/prospectml/leadscout/internal/model"
)

// ErrJobNotFound is returned by GetJob when no job exists with the given id.
var ErrJobNotFound = eris.New("store: job not found")

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	Status model.JobStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store persists background discovery jobs and their ranked leads. Leads are
// written once, inside the completing transaction, in ranked order.
type Store interface {
	CreateJob(ctx context.Context, req model.DiscoveryRequest) (*model.Job, error)
	MarkJobRunning(ctx context.Context, jobID string) error
	CompleteJob(ctx context.Context, jobID string, leads []model.EnrichedLead) error
	FailJob(ctx context.Context, jobID string, message string) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
