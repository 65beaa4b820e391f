package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineIdentical(t *testing.T) {
	v := []float32{0.1, 0.2, 0.3}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
}

func TestCosineSymmetric(t *testing.T) {
	a := []float32{0.3, 0.1, 0.9}
	b := []float32{0.5, 0.5, 0.2}
	assert.InDelta(t, Cosine(a, b), Cosine(b, a), 1e-12)
}

func TestCosineZeroNorm(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}
	assert.Equal(t, 0.0, Cosine(a, b))
	assert.Equal(t, 0.0, Cosine(b, a))
}

func TestCosineLengthMismatch(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, Cosine(nil, []float32{1}))
}

func TestCosineOrthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestSequenceRatioExact(t *testing.T) {
	assert.Equal(t, 1.0, sequenceRatio("Frontend", "frontend"))
	assert.Equal(t, 1.0, sequenceRatio("", ""))
}

func TestSequenceRatioDisjoint(t *testing.T) {
	assert.InDelta(t, 0.0, sequenceRatio("abc", "xyz"), 1e-9)
}

func TestSequenceRatioPartial(t *testing.T) {
	score := sequenceRatio("frontend", "frontend developer")
	assert.Greater(t, score, 0.15)
	assert.Less(t, score, 1.0)
}

func TestNormalizeSearchText(t *testing.T) {
	assert.Equal(t, "ai and ml basics", normalizeSearchText("AI & ML-Basics"))
	assert.Equal(t, "web development", normalizeCategory("Web/Development"))
}
