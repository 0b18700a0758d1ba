// Package text implements deterministic document normalization and
// n-gram shingling (spec §4.1). Normalization feeds both the fuzzy ratio
// (§4.4) and the shingle set consumed by MinHash (§4.2).
package text

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var foldCase = cases.Fold() // Unicode case-folding aware lowercasing

// Normalized holds the output of Normalize: a canonical text form plus its
// derived word count and content hash.
type Normalized struct {
	Text        string
	WordCount   int
	ContentHash string // lowercase hex SHA-256 of Text
}

// Normalize lowercases text with a Unicode case-folding aware transform,
// collapses any run of whitespace (including tabs/newlines) to a single
// space, and trims leading/trailing spaces. WordCount counts
// whitespace-separated non-empty tokens; ContentHash is the hex SHA-256 of
// the resulting text.
func Normalize(raw string) Normalized {
	folded := foldCase.String(raw)
	collapsed := collapseWhitespace(folded)

	words := 0
	if collapsed != "" {
		words = len(strings.Split(collapsed, " "))
	}

	sum := sha256.Sum256([]byte(collapsed))
	return Normalized{
		Text:        collapsed,
		WordCount:   words,
		ContentHash: hex.EncodeToString(sum[:]),
	}
}

// collapseWhitespace replaces any run of Unicode whitespace with a single
// ASCII space and trims the result.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
