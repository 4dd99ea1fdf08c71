package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/pkg/metrics"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS paths (
	id          TEXT PRIMARY KEY,
	goal        TEXT NOT NULL,
	path_json   TEXT NOT NULL,
	changes     TEXT NOT NULL DEFAULT '[]',
	revision    INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS proposals (
	id            TEXT PRIMARY KEY,
	path_id       TEXT NOT NULL REFERENCES paths(id),
	base_revision INTEGER NOT NULL,
	refined_json  TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_proposals_path ON proposals(path_id);
`

// SQLiteStore implements Store on a SQLite file.
type SQLiteStore struct {
	settings
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer; commits rely on serialized transactions
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s := &SQLiteStore{settings: apply(opts), db: db}
	metrics.UpdateStoredPaths(s.Count(context.Background()))
	return s, nil
}

func (s *SQLiteStore) Save(ctx context.Context, goal string, path model.LearningPath) (Record, error) {
	now := s.now()
	rec := Record{
		ID:        s.newID(),
		Goal:      goal,
		Path:      path.Clone(),
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	pathJSON, err := json.Marshal(rec.Path)
	if err != nil {
		return Record{}, fmt.Errorf("encode path: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO paths(id, goal, path_json, revision, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Goal, string(pathJSON), rec.Revision, formatTime(now), formatTime(now))
	if err != nil {
		return Record{}, fmt.Errorf("insert path: %w", err)
	}
	metrics.UpdateStoredPaths(s.Count(ctx))
	return rec, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	return s.get(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) get(ctx context.Context, q queryer, id string) (Record, error) {
	var (
		rec                  Record
		pathJSON, changes    string
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, goal, path_json, changes, revision, created_at, updated_at FROM paths WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Goal, &pathJSON, &changes, &rec.Revision, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("select path: %w", err)
	}
	if err := json.Unmarshal([]byte(pathJSON), &rec.Path); err != nil {
		return Record{}, fmt.Errorf("decode path %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(changes), &rec.Changes); err != nil {
		return Record{}, fmt.Errorf("decode changes %s: %w", id, err)
	}
	if len(rec.Changes) == 0 {
		rec.Changes = nil
	}
	rec.Path = rec.Path.Clone()
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return rec, nil
}

func (s *SQLiteStore) Propose(ctx context.Context, id string, refined model.RefinedPath) (Proposal, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Proposal{}, fmt.Errorf("propose: %w", err)
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
	body, err := json.Marshal(p.Refined)
	if err != nil {
		return Proposal{}, fmt.Errorf("encode proposal: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO proposals(id, path_id, base_revision, refined_json, created_at) VALUES(?, ?, ?, ?, ?)`,
		p.ID, p.PathID, p.BaseRevision, string(body), formatTime(p.CreatedAt))
	if err != nil {
		return Proposal{}, fmt.Errorf("insert proposal: %w", err)
	}
	metrics.RecordPathProposal()
	return p, nil
}

func (s *SQLiteStore) Commit(ctx context.Context, id, proposalID string) (Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("begin commit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := s.get(ctx, tx, id)
	if err != nil {
		return Record{}, fmt.Errorf("commit: %w", err)
	}

	var (
		pathID  string
		base    int
		refined string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT path_id, base_revision, refined_json FROM proposals WHERE id = ?`, proposalID).
		Scan(&pathID, &base, &refined)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && pathID != id) {
		return Record{}, fmt.Errorf("commit %s: %w", proposalID, ErrProposalNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("select proposal: %w", err)
	}
	if base != rec.Revision {
		metrics.RecordStaleCommit()
		return Record{}, fmt.Errorf("commit %s at revision %d, current %d: %w",
			proposalID, base, rec.Revision, ErrStaleProposal)
	}

	var rp model.RefinedPath
	if err := json.Unmarshal([]byte(refined), &rp); err != nil {
		return Record{}, fmt.Errorf("decode proposal %s: %w", proposalID, err)
	}
	rec.Path = rp.Path.Clone()
	rec.Changes = rp.ChangesMade
	rec.Revision++
	rec.UpdatedAt = s.now()

	pathJSON, err := json.Marshal(rec.Path)
	if err != nil {
		return Record{}, fmt.Errorf("encode path: %w", err)
	}
	changes, err := json.Marshal(nonNil(rec.Changes))
	if err != nil {
		return Record{}, fmt.Errorf("encode changes: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE paths SET path_json = ?, changes = ?, revision = ?, updated_at = ? WHERE id = ? AND revision = ?`,
		string(pathJSON), string(changes), rec.Revision, formatTime(rec.UpdatedAt), id, base)
	if err != nil {
		return Record{}, fmt.Errorf("update path: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		metrics.RecordStaleCommit()
		return Record{}, fmt.Errorf("commit %s: %w", proposalID, ErrStaleProposal)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM proposals WHERE id = ?`, proposalID); err != nil {
		return Record{}, fmt.Errorf("delete proposal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordPathCommit()
	return rec, nil
}

func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM paths`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
