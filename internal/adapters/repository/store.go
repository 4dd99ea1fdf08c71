// Package repository persists learning paths and their pending refinements.
package repository

import (
	"context"
	"time"

	"github.com/okian/auralearn/internal/domain/model"
)

// Record is a stored learning path. Revision increases on every commit.
type Record struct {
	ID        string             `json:"path_id"`
	Goal      string             `json:"goal"`
	Path      model.LearningPath `json:"learning_path"`
	Revision  int                `json:"revision"`
	Changes   []string           `json:"changes_made,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Proposal is a refined path waiting to be committed against BaseRevision.
type Proposal struct {
	ID           string            `json:"proposal_id"`
	PathID       string            `json:"path_id"`
	BaseRevision int               `json:"base_revision"`
	Refined      model.RefinedPath `json:"refined_path"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Store tracks learning paths. Only Commit changes the current path.
type Store interface {
	// Save stores a new path at revision 1.
	Save(ctx context.Context, goal string, path model.LearningPath) (Record, error)

	// Get returns the current path. Returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (Record, error)

	// Propose records a refinement derived from the current revision.
	Propose(ctx context.Context, id string, refined model.RefinedPath) (Proposal, error)

	// Commit makes a proposal current. It fails with ErrStaleProposal when
	// the path was committed since the proposal was made.
	Commit(ctx context.Context, id, proposalID string) (Record, error)

	// Count returns the number of stored paths.
	Count(ctx context.Context) int

	Close() error
}
