package strings

import (
	"strings"
	"unicode"
)

// TrigramSimilarity computes set similarity over overlapping 3-character
// substrings, following the same conventions as PostgreSQL's pg_trgm:
// input is lowercased, split on non-alphanumerics, and each word is padded
// with two leading and one trailing space before extraction. The result is
// |shared| / |union|, in [0,1].
//
// The in-memory dedupe stores use this so that fuzzy-match behavior stays
// consistent with the similarity() queries run against Postgres.
func TrigramSimilarity(a, b string) float64 {
	ta := trigramSet(a)
	tb := trigramSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func trigramSet(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]struct{})
	for _, w := range words {
		padded := "  " + w + " "
		for i := 0; i+3 <= len(padded); i++ {
			set[padded[i:i+3]] = struct{}{}
		}
	}
	return set
}
