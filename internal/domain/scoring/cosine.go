// Package scoring holds the pure ranking primitives of the retrieval core:
// cosine similarity, the simplified single-document BM25 scorer, and rank
// fusion. Everything here is deterministic, non-blocking computation.
package scoring

import (
	"fmt"
	"math"

	"github.com/lorehub/lore/internal/domain"
)

// Cosine returns the cosine similarity of two vectors in [-1, 1].
// Vectors of different lengths are a hard error (embeddings from different
// models must never be compared silently). Returns 0, not NaN, when either
// norm is zero.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
