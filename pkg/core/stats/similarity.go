package stats

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultSimilarityThreshold is the tuned cutoff above which two names are
// treated as the same underlying entity. 0.85 catches "Acme Corp" vs
// "Acme Corp." without merging genuinely distinct vendors.
const DefaultSimilarityThreshold = 0.85

// Similarity returns a normalized edit-distance ratio in [0,1] between two
// text values. Comparison is case-insensitive with whitespace collapsed;
// 1.0 means identical after normalization.
func Similarity(a, b string) float64 {
	na := normalizeText(a)
	nb := normalizeText(b)

	if na == nb {
		return 1.0
	}
	longest := max(len([]rune(na)), len([]rune(nb)))
	if longest == 0 {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(na, nb)
	return 1.0 - float64(dist)/float64(longest)
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
