// Package embedding provides text embedders for the local retrieval backend.
package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/okian/auralearn/internal/domain/grounding"
)

// DefaultDimensions is the vector size of the hashing embedder.
const DefaultDimensions = 512

// Hashing embeds text as an L2-normalised bag of hashed words. It needs no
// model and is deterministic, so it is the offline default.
type Hashing struct {
	dims int
}

// NewHashing creates a hashing embedder with dims buckets.
func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Hashing{dims: dims}
}

// Dimensions returns the vector size.
func (h *Hashing) Dimensions() int { return h.dims }

// Embed never fails; an empty text yields a zero vector.
func (h *Hashing) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dims)
	for _, tok := range grounding.Tokens(text) {
		f := fnv.New64a()
		_, _ = f.Write([]byte(tok))
		sum := f.Sum64()
		idx := int(sum % uint64(h.dims))
		// the top bit signs the bucket so collisions tend to cancel
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
