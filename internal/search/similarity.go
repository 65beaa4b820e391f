package search

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Cosine computes cosine similarity between two vectors, accumulating
// in float64. Returns 0 when either vector has zero norm or the
// lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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

// sequenceRatio scores how similar two strings are in [0,1] using the
// normalized Levenshtein distance over lowercased runes.
func sequenceRatio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// normalizeSearchText rewrites punctuation variants so "AI & ML" and
// "ai and ml" compare equal.
func normalizeSearchText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.ReplaceAll(s, "-", " ")
	return s
}

// normalizeCategory additionally collapses slash-separated categories.
func normalizeCategory(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "/", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return s
}
