// Package jobs runs background discovery jobs against the store. A submitted
// job is persisted before its goroutine starts, so callers can poll it even
// if the process restarts mid-run.
package jobs

import (
	"context"
	"errors"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/resilience"
	"github.com/prospectml/leadscout/internal/store"
)

// Discoverer runs one discovery pass and returns ranked leads.
type Discoverer interface {
	Run(ctx context.Context, req *model.DiscoveryRequest, mode model.Mode) ([]model.EnrichedLead, error)
}

// Runner executes discovery jobs on their own goroutines and records their
// lifecycle in the store.
type Runner struct {
	store store.Store
	disc  Discoverer

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewRunner creates a Runner backed by the given store and discoverer.
func NewRunner(st store.Store, disc Discoverer) *Runner {
	return &Runner{store: st, disc: disc}
}

// Submit persists a queued job and starts it in the background. The returned
// job carries the id callers poll with.
func (r *Runner) Submit(ctx context.Context, req model.DiscoveryRequest) (*model.Job, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, eris.New("jobs: runner is shut down")
	}
	r.wg.Add(1)
	r.mu.Unlock()

	job, err := r.store.CreateJob(ctx, req)
	if err != nil {
		r.wg.Done()
		return nil, eris.Wrap(err, "jobs: create job")
	}

	go r.run(job.ID, req)
	return job, nil
}

// Get returns a stored job with its leads.
func (r *Runner) Get(ctx context.Context, jobID string) (*model.Job, error) {
	return r.store.GetJob(ctx, jobID)
}

// List returns stored jobs, most recent first.
func (r *Runner) List(ctx context.Context, filter store.JobFilter) ([]model.Job, error) {
	return r.store.ListJobs(ctx, filter)
}

// Close stops accepting new jobs and waits for in-flight jobs to finish.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}

// run executes one job to a terminal state. The context is detached from the
// submitting request: the discoverer applies the background deadline itself.
func (r *Runner) run(jobID string, req model.DiscoveryRequest) {
	defer r.wg.Done()

	ctx := context.Background()
	log := zap.L().With(zap.String("job_id", jobID))

	if err := r.store.MarkJobRunning(ctx, jobID); err != nil {
		log.Error("jobs: mark running", zap.Error(err))
		return
	}

	leads, err := r.disc.Run(ctx, &req, model.ModeBackground)
	if err != nil {
		msg := failureMessage(err)
		if ferr := r.store.FailJob(ctx, jobID, msg); ferr != nil {
			log.Error("jobs: record failure", zap.Error(ferr))
		}
		log.Warn("jobs: job failed", zap.String("reason", msg))
		return
	}

	if err := r.store.CompleteJob(ctx, jobID, leads); err != nil {
		log.Error("jobs: record completion", zap.Error(err))
		return
	}
	log.Info("jobs: job complete", zap.Int("leads", len(leads)))
}

// failureMessage classifies a run error into the stored failure message,
// mirroring the HTTP error taxonomy.
func failureMessage(err error) string {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return "validation: " + verr.Error()
	}
	var cerr *model.ConfigurationError
	if errors.As(err, &cerr) {
		return "configuration: " + cerr.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) || resilience.IsTransient(err) {
		return "timeout: " + err.Error()
	}
	return err.Error()
}
