package api

import (
	"context"
	"net/http"

	"github.com/okian/auralearn/internal/domain/model"
)

// SearchDependencies exposes raw retrieval.
type SearchDependencies interface {
	Search(ctx context.Context, query string) ([]model.RetrievedDocument, error)
}

// SearchHandler handles knowledge base diagnostics.
type SearchHandler struct {
	deps SearchDependencies
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(deps SearchDependencies) *SearchHandler {
	return &SearchHandler{deps: deps}
}

type searchResponse struct {
	Query     string                    `json:"query"`
	Documents []model.RetrievedDocument `json:"documents"`
}

// HandleSearch handles GET /knowledge/search?query=.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_knowledge"
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query().Get("query")
	docs, err := h.deps.Search(r.Context(), q)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if docs == nil {
		docs = []model.RetrievedDocument{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Documents: docs})
}
