package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine_Symmetry(t *testing.T) {
	a := []float64{0.3, -0.7, 0.2, 0.9}
	b := []float64{0.1, 0.4, -0.5, 0.6}

	ab, err := Cosine(a, b)
	require.NoError(t, err)
	ba, err := Cosine(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
}

func TestCosine_SelfSimilarity(t *testing.T) {
	a := []float64{0.25, -0.5, 1.5, 0.75}

	score, err := Cosine(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestCosine_ZeroVector(t *testing.T) {
	zero := []float64{0, 0, 0}
	a := []float64{1, 2, 3}

	score, err := Cosine(zero, a)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	score, err = Cosine(a, zero)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestCosine_DimensionMismatch(t *testing.T) {
	_, err := Cosine([]float64{1, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestCosine_OrthogonalAndOpposite(t *testing.T) {
	x := []float64{1, 0}
	y := []float64{0, 1}

	score, err := Cosine(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-9)

	negX := []float64{-1, 0}
	score, err = Cosine(x, negX)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, score, 1e-9)
}
