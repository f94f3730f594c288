package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})

	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-6)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
}

func TestNormalizeVector_ZeroVector(t *testing.T) {
	v := NormalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestNormalizeVector_Empty(t *testing.T) {
	assert.Empty(t, NormalizeVector(nil))
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	c := []float32{1, 0}

	assert.InDelta(t, 0.0, float64(CosineSimilarity(a, b)), 1e-6)
	assert.InDelta(t, 1.0, float64(CosineSimilarity(a, c)), 1e-6)
}

func TestCosineSimilarity_LengthMismatch(t *testing.T) {
	a := []float32{1, 1, 1}
	b := []float32{1, 1}
	// Shorter length wins; no panic.
	assert.InDelta(t, 2.0, float64(CosineSimilarity(a, b)), 1e-6)
}
