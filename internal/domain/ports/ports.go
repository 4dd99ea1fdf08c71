// Package ports declares the gateways the pipeline depends on.
package ports

import (
	"context"

	"github.com/okian/auralearn/internal/domain/model"
)

// Retriever searches the knowledge store. No match is an empty slice, not an error.
type Retriever interface {
	Search(ctx context.Context, query string) ([]model.RetrievedDocument, error)
}

// Generator returns free-form text for a prompt. The text is untrusted:
// callers validate or recover it before use. Transport failures are errors.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a dense vector for local retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RetrieverFunc adapts a function to Retriever.
type RetrieverFunc func(ctx context.Context, query string) ([]model.RetrievedDocument, error)

// Search calls f.
func (f RetrieverFunc) Search(ctx context.Context, query string) ([]model.RetrievedDocument, error) {
	return f(ctx, query)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// GenerateText calls f.
func (f GeneratorFunc) GenerateText(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
