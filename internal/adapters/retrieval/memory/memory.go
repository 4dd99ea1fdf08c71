// Package memory is an in-process vector store over a YAML knowledge corpus.
package memory

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/ports"
	"github.com/okian/auralearn/pkg/logger"
)

const (
	defaultTopK     = 5
	defaultMinScore = 0.05
)

// Document is one corpus entry.
type Document struct {
	Source  string `yaml:"source"`
	Content string `yaml:"content"`
}

// Corpus is the on-disk file format.
type Corpus struct {
	Documents []Document `yaml:"documents"`
}

type entry struct {
	doc Document
	vec []float32
}

// Store implements ports.Retriever with cosine similarity over embedded
// documents.
type Store struct {
	embedder ports.Embedder
	topK     int
	minScore float64
	logger   logger.Logger

	mu      sync.RWMutex
	entries []entry
}

// Option configures a Store.
type Option func(*Store)

// WithTopK caps the number of results.
func WithTopK(k int) Option {
	return func(s *Store) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithMinScore drops results scoring below v.
func WithMinScore(v float64) Option {
	return func(s *Store) {
		if v >= 0 {
			s.minScore = v
		}
	}
}

// New creates an empty store.
func New(embedder ports.Embedder, opts ...Option) *Store {
	s := &Store{
		embedder: embedder,
		topK:     defaultTopK,
		minScore: defaultMinScore,
		logger:   logger.Get().Named("retrieval.memory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadCorpus parses a YAML corpus file.
func ReadCorpus(path string) (Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Corpus{}, fmt.Errorf("read corpus: %w", err)
	}
	var c Corpus
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Corpus{}, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	return c, nil
}

// Load replaces the store contents with the corpus at path. On error the
// previous contents are kept.
func (s *Store) Load(ctx context.Context, path string) error {
	c, err := ReadCorpus(path)
	if err != nil {
		return err
	}
	entries, err := s.embed(ctx, c.Documents)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Info(ctx, "corpus loaded", logger.String("path", path), logger.Int("documents", len(entries)))
	return nil
}

// Add embeds and appends documents.
func (s *Store) Add(ctx context.Context, docs ...Document) error {
	entries, err := s.embed(ctx, docs)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = append(s.entries, entries...)
	s.mu.Unlock()
	return nil
}

// Clear removes every document.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// Len returns the number of documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) embed(ctx context.Context, docs []Document) ([]entry, error) {
	out := make([]entry, 0, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			continue
		}
		vec, err := s.embedder.Embed(ctx, d.Content)
		if err != nil {
			return nil, fmt.Errorf("embedding document %d: %w", i, err)
		}
		out = append(out, entry{doc: d, vec: vec})
	}
	return out, nil
}

// Search ranks documents by cosine similarity to query.
func (s *Store) Search(ctx context.Context, query string) ([]model.RetrievedDocument, error) {
	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	s.mu.RLock()
	type scored struct {
		doc   Document
		score float64
	}
	hits := make([]scored, 0, len(s.entries))
	for _, e := range s.entries {
		if sc := cosineSimilarity(qv, e.vec); sc >= s.minScore && sc > 0 {
			hits = append(hits, scored{doc: e.doc, score: sc})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > s.topK {
		hits = hits[:s.topK]
	}

	docs := make([]model.RetrievedDocument, 0, len(hits))
	for _, h := range hits {
		d := model.RetrievedDocument{Content: h.doc.Content, Score: h.score}
		if h.doc.Source != "" {
			d.Source = map[string]any{"uri": h.doc.Source}
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
