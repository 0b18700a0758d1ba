package fuzzy

import (
	"github.com/hbollon/go-edlib"
)

// Ratio computes a Levenshtein-derived similarity ratio in [0,1]:
// 1 - edit_distance(a,b) / max(len(a),len(b)), with single-character
// insert/delete/substitute costs (spec §4.4). Empty-on-empty returns 1.0;
// empty-vs-nonempty returns 0.0.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	dist := edlib.LevenshteinDistance(a, b)

	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1.0
	}

	ratio := 1.0 - float64(dist)/float64(maxLen)
	if ratio < 0 {
		ratio = 0
	}
	return ratio
}
