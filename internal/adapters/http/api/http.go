// Package api serves the pipeline over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/auralearn/internal/adapters/repository"
	service "github.com/okian/auralearn/internal/app"
	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/pipeline"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StatsProvider

	RunPipeline(ctx context.Context, goal string) (*model.RunResult, error)
	BuildLearningPath(ctx context.Context, goal string) (service.PathResult, error)
	Refine(ctx context.Context, req service.RefineRequest) (model.RefinementResult, error)

	Path(ctx context.Context, id string) (repository.Record, error)
	Commit(ctx context.Context, pathID, proposalID string) (repository.Record, error)

	SubmitJob(ctx context.Context, id, goal string) (model.JobRecord, service.SubmitOutcome, error)
	Job(ctx context.Context, id string) (model.JobRecord, error)

	Search(ctx context.Context, query string) ([]model.RetrievedDocument, error)
}

// Server wires HTTP routes for the pipeline API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	pipelineHandler *PipelineHandler
	pathsHandler    *PathsHandler
	jobsHandler     *JobsHandler
	searchHandler   *SearchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		pipelineHandler: NewPipelineHandler(deps),
		pathsHandler:    NewPathsHandler(deps),
		jobsHandler:     NewJobsHandler(deps),
		searchHandler:   NewSearchHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/pipeline", MetricsMiddleware(s.pipelineHandler.HandleRun, "pipeline"))
	mux.HandleFunc("/learning-path", MetricsMiddleware(s.pipelineHandler.HandleLearningPath, "learning_path"))
	mux.HandleFunc("/refine", MetricsMiddleware(s.pipelineHandler.HandleRefine, "refine"))
	mux.HandleFunc("/paths/", MetricsMiddleware(s.pathsHandler.HandlePaths, "paths"))
	mux.HandleFunc("/jobs", MetricsMiddleware(s.jobsHandler.HandleSubmit, "jobs"))
	mux.HandleFunc("/jobs/", MetricsMiddleware(s.jobsHandler.HandleGet, "jobs"))
	mux.HandleFunc("/knowledge/search", MetricsMiddleware(s.searchHandler.HandleSearch, "knowledge_search"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a service error to its status and code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, fmt.Errorf("%s: %w", op, err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, pipeline.ErrEmptyGoal),
		errors.Is(err, service.ErrMissingPath),
		errors.Is(err, service.ErrEmptyQuery):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrProposalNotFound),
		errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrStaleProposal):
		return http.StatusConflict, "stale_proposal"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}

// decode reads a JSON body into v. Unknown fields are rejected.
func decode(r *http.Request, op string, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	return false
}
