package grader

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Weights of the combined similarity ratio.
const (
	structuralWeight = 0.7
	textWeight       = 0.3
)

// StructuralSimilarity compares two multisets: one minus the L1 distance
// normalized by both totals plus the number of distinct keys. Two empty
// multisets are identical.
func StructuralSimilarity(a, b FeatureMultiset) float64 {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	if len(keys) == 0 {
		return 1.0
	}

	diff := 0
	for k := range keys {
		d := a[k] - b[k]
		if d < 0 {
			d = -d
		}
		diff += d
	}

	denom := float64(a.Total() + b.Total() + len(keys))
	return clamp01(1 - float64(diff)/denom)
}

// TextSimilarity is the longest-matching-blocks ratio 2*M/(|a|+|b|) of two
// dumps compared character by character.
func TextSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

// Similarity combines structural and text similarity into one ratio.
func Similarity(subFeatures, refFeatures FeatureMultiset, subDump, refDump string) float64 {
	return structuralWeight*StructuralSimilarity(subFeatures, refFeatures) +
		textWeight*TextSimilarity(subDump, refDump)
}

func splitChars(s string) []string {
	return strings.Split(s, "")
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
