package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/auralearn/internal/app"
	"github.com/okian/auralearn/internal/domain/model"
)

// JobsDependencies submits and reads async runs.
type JobsDependencies interface {
	SubmitJob(ctx context.Context, id, goal string) (model.JobRecord, service.SubmitOutcome, error)
	Job(ctx context.Context, id string) (model.JobRecord, error)
}

// JobsHandler handles /jobs.
type JobsHandler struct {
	deps JobsDependencies
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(deps JobsDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

type jobRequest struct {
	JobID string `json:"job_id"`
	Goal  string `json:"goal"`
}

type ackResponse struct {
	Status    string          `json:"status"`
	Duplicate bool            `json:"duplicate"`
	Job       model.JobRecord `json:"job"`
}

// HandleSubmit handles POST /jobs. The seen-id rollback on backpressure is
// done by the service.
func (h *JobsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_job"
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req jobRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.Goal) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissingGoal))
		return
	}

	rec, outcome, err := h.deps.SubmitJob(r.Context(), req.JobID, req.Goal)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if outcome == service.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, Job: rec})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Job: rec})
}

// HandleGet handles GET /jobs/{id}.
func (h *JobsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.Job(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
