package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/auralearn/internal/app"
	"github.com/okian/auralearn/internal/domain/model"
)

// PipelineDependencies runs and refines learning paths.
type PipelineDependencies interface {
	RunPipeline(ctx context.Context, goal string) (*model.RunResult, error)
	BuildLearningPath(ctx context.Context, goal string) (service.PathResult, error)
	Refine(ctx context.Context, req service.RefineRequest) (model.RefinementResult, error)
}

// PipelineHandler handles run, learning-path and refine requests.
type PipelineHandler struct {
	deps PipelineDependencies
}

// NewPipelineHandler creates a pipeline handler.
func NewPipelineHandler(deps PipelineDependencies) *PipelineHandler {
	return &PipelineHandler{deps: deps}
}

type goalRequest struct {
	Goal string `json:"goal"`
}

func (g goalRequest) validate(op string) error {
	if strings.TrimSpace(g.Goal) == "" {
		return WrapKind(op, ErrBadRequest, errMissingGoal)
	}
	return nil
}

// HandleRun handles POST /pipeline.
func (h *PipelineHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.run_pipeline"
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req goalRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(op); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	res, err := h.deps.RunPipeline(r.Context(), req.Goal)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleLearningPath handles POST /learning-path.
func (h *PipelineHandler) HandleLearningPath(w http.ResponseWriter, r *http.Request) {
	const op = "api.build_learning_path"
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req goalRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(op); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	res, err := h.deps.BuildLearningPath(r.Context(), req.Goal)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleRefine handles POST /refine.
func (h *PipelineHandler) HandleRefine(w http.ResponseWriter, r *http.Request) {
	const op = "api.refine"
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req service.RefineRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	res, err := h.deps.Refine(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
