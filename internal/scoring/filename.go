package scoring

import (
	"path/filepath"
	"strings"
)

// Filename computes a token-set Jaccard similarity over filename stems
// (spec §4.5): the extension is stripped, the stem is split on runs of
// non-alphanumeric characters, and tokens are lowercased before comparison.
// Returns 0 if either filename is missing.
func Filename(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	setA := tokenize(a)
	setB := tokenize(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenize(filename string) map[string]struct{} {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	tokens := strings.FieldsFunc(strings.ToLower(stem), func(r rune) bool {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		return !isAlnum
	})

	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}
