package ingest

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two names in [0, 1] as 1 - editDistance/maxLen over their
// normalized forms. An exact normalized match scores 1.0; if either side is
// empty after normalization the score is 0 (the max-length divisor would
// otherwise be zero).
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	maxLen := utf8.RuneCountInString(na)
	if l := utf8.RuneCountInString(nb); l > maxLen {
		maxLen = l
	}

	distance := levenshtein.ComputeDistance(na, nb)
	return 1 - float64(distance)/float64(maxLen)
}
