package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/pkg/metrics"
)

// MemoryStore keeps paths in process memory.
type MemoryStore struct {
	settings

	mu        sync.RWMutex
	records   map[string]Record
	proposals map[string]Proposal
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		settings:  apply(opts),
		records:   make(map[string]Record),
		proposals: make(map[string]Proposal),
	}
}

func (s *MemoryStore) Save(_ context.Context, goal string, path model.LearningPath) (Record, error) {
	now := s.now()
	rec := Record{
		ID:        s.newID(),
		Goal:      goal,
		Path:      path.Clone(),
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.records[rec.ID] = rec
	n := len(s.records)
	s.mu.Unlock()

	metrics.UpdateStoredPaths(n)
	return copyRecord(rec), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return copyRecord(rec), nil
}

func (s *MemoryStore) Propose(_ context.Context, id string, refined model.RefinedPath) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return Proposal{}, fmt.Errorf("propose %s: %w", id, ErrNotFound)
	}
	p := Proposal{
		ID:           s.newID(),
		PathID:       id,
		BaseRevision: rec.Revision,
		Refined: model.RefinedPath{
			Path:        refined.Path.Clone(),
			ChangesMade: append([]string(nil), refined.ChangesMade...),
		},
		CreatedAt: s.now(),
	}
	s.proposals[p.ID] = p
	metrics.RecordPathProposal()
	return p, nil
}

func (s *MemoryStore) Commit(_ context.Context, id, proposalID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("commit %s: %w", id, ErrNotFound)
	}
	p, ok := s.proposals[proposalID]
	if !ok || p.PathID != id {
		return Record{}, fmt.Errorf("commit %s: %w", proposalID, ErrProposalNotFound)
	}
	if p.BaseRevision != rec.Revision {
		metrics.RecordStaleCommit()
		return Record{}, fmt.Errorf("commit %s at revision %d, current %d: %w",
			proposalID, p.BaseRevision, rec.Revision, ErrStaleProposal)
	}

	rec.Path = p.Refined.Path.Clone()
	rec.Changes = append([]string(nil), p.Refined.ChangesMade...)
	rec.Revision++
	rec.UpdatedAt = s.now()
	s.records[id] = rec
	delete(s.proposals, proposalID)

	metrics.RecordPathCommit()
	return copyRecord(rec), nil
}

func (s *MemoryStore) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close() error { return nil }

func copyRecord(r Record) Record {
	r.Path = r.Path.Clone()
	r.Changes = append([]string(nil), r.Changes...)
	return r
}
