package similarity

import (
	"errors"
	"math"
)

// ErrDimensionMismatch is returned when two vectors of unequal length are
// compared. This is a programmer error: all embeddings from one provider
// share a fixed dimension.
var ErrDimensionMismatch = errors.New("vectors must have the same length")

// Cosine returns the cosine similarity between two equal-length vectors.
// A zero-norm input yields 0 rather than an error.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
