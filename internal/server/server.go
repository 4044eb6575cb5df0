// Package server exposes the discovery pipeline over HTTP: a bounded
// synchronous endpoint and a background job surface backed by the store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/resilience"
	"github.com/prospectml/leadscout/internal/store"
)

// Discoverer runs one discovery pass and returns ranked leads.
type Discoverer interface {
	Run(ctx context.Context, req *model.DiscoveryRequest, mode model.Mode) ([]model.EnrichedLead, error)
}

// JobRunner is the background job surface the server exposes.
type JobRunner interface {
	Submit(ctx context.Context, req model.DiscoveryRequest) (*model.Job, error)
	Get(ctx context.Context, jobID string) (*model.Job, error)
	List(ctx context.Context, filter store.JobFilter) ([]model.Job, error)
}

// Server handles the HTTP surface.
type Server struct {
	pipeline Discoverer
	runner   JobRunner
}

// New creates a Server over the given pipeline and job runner.
func New(pipeline Discoverer, runner JobRunner) *Server {
	return &Server{pipeline: pipeline, runner: runner}
}

// Routes builds the router: permissive CORS, request logging, JSON errors
// for unknown paths and methods.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/leads/discover", s.handleDiscover)
	r.Post("/v1/jobs", s.handleSubmitJob)
	r.Get("/v1/jobs", s.handleListJobs)
	r.Get("/v1/jobs/{jobID}", s.handleGetJob)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such route", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDiscover runs the pipeline synchronously under the sync budget.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req model.DiscoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}

	leads, err := s.pipeline.Run(r.Context(), &req, model.ModeSync)
	if err != nil {
		writeRunError(w, err)
		return
	}
	if leads == nil {
		leads = []model.EnrichedLead{}
	}
	writeJSON(w, http.StatusOK, discoverResponse{Leads: leads, Count: len(leads)})
}

// handleSubmitJob validates the facets up front so a rejected request never
// becomes a stored job, then queues the run.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req model.DiscoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}

	req.Normalize()
	if missing := req.MissingFields(); len(missing) > 0 {
		verr := model.NewValidationError(missing)
		writeError(w, http.StatusBadRequest, "validation", verr.Error(), missing)
		return
	}

	job, err := s.runner.Submit(r.Context(), req)
	if err != nil {
		zap.L().Error("server: submit job", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "could not queue job", nil)
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{JobID: job.ID, Status: job.Status})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := s.runner.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no such job", nil)
			return
		}
		zap.L().Error("server: get job", zap.String("job_id", jobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "could not load job", nil)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	filter := store.JobFilter{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = model.JobStatus(status)
	}

	jobs, err := s.runner.List(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list jobs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "could not list jobs", nil)
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	writeJSON(w, http.StatusOK, listResponse{Jobs: jobs, Count: len(jobs)})
}

// writeRunError maps a pipeline error onto the response taxonomy: absent
// mandatory facets are the caller's fault, a missing credential is an
// operator problem worth naming, and an exhausted deadline points the caller
// at background mode.
func writeRunError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, "validation", verr.Error(), verr.Missing)
		return
	}
	var cerr *model.ConfigurationError
	if errors.As(err, &cerr) {
		zap.L().Error("server: discovery misconfigured", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "configuration", cerr.Error(), nil)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) || resilience.IsTransient(err) {
		zap.L().Warn("server: discovery timed out", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "timeout",
			"discovery timed out; submit the request as a background job via POST /v1/jobs", nil)
		return
	}
	zap.L().Error("server: discovery failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal", "lead discovery failed", nil)
}

type discoverResponse struct {
	Leads []model.EnrichedLead `json:"leads"`
	Count int                  `json:"count"`
}

type submitResponse struct {
	JobID  string          `json:"jobId"`
	Status model.JobStatus `json:"status"`
}

type listResponse struct {
	Jobs  []model.Job `json:"jobs"`
	Count int         `json:"count"`
}

type errorBody struct {
	Type          string   `json:"type"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missingFields,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, errType, message string, missing []string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Type:          errType,
		Message:       message,
		MissingFields: missing,
	}})
}

func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// requestLogger logs each request with its status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
