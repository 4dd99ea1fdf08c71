package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/auralearn/internal/adapters/repository"
)

// PathsDependencies reads and commits stored paths.
type PathsDependencies interface {
	Path(ctx context.Context, id string) (repository.Record, error)
	Commit(ctx context.Context, pathID, proposalID string) (repository.Record, error)
}

// PathsHandler handles /paths/{id} and /paths/{id}/commit.
type PathsHandler struct {
	deps PathsDependencies
}

// NewPathsHandler creates a paths handler.
func NewPathsHandler(deps PathsDependencies) *PathsHandler {
	return &PathsHandler{deps: deps}
}

type commitRequest struct {
	ProposalID string `json:"proposal_id"`
}

// HandlePaths routes by the remainder of the path.
func (h *PathsHandler) HandlePaths(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/paths/")
	id, action, _ := strings.Cut(rest, "/")
	switch {
	case id == "":
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.paths", ErrBadRequest))
	case action == "":
		h.get(w, r, id)
	case action == "commit":
		h.commit(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *PathsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_path"
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	rec, err := h.deps.Path(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *PathsHandler) commit(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.commit_path"
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req commitRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.ProposalID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissingProposal))
		return
	}
	rec, err := h.deps.Commit(r.Context(), id, req.ProposalID)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
