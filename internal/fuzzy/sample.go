// Package fuzzy implements bounded Levenshtein-ratio text comparison over
// deterministically sampled windows (spec §4.4), used as the fuzzy
// component of pair scoring (§4.6). Distance computation is grounded on
// github.com/hbollon/go-edlib (seen wired for fuzzy/edit-distance matching
// in the pack's standardbeagle-lci repo) rather than a hand-rolled DP table.
package fuzzy

// Sample returns a deterministic, length-bounded excerpt of text suitable
// for cheap fuzzy comparison. If text is already within maxChars it is
// returned unchanged; otherwise three equal-width slices -- from the start,
// the midpoint, and the end -- are joined with spaces, the slices and the
// two spaces together holding at most maxChars characters. This bounds
// comparison cost on very long OCR dumps while still sampling the whole
// document rather than just its head.
func Sample(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars || maxChars <= 0 {
		return text
	}

	sliceWidth := (maxChars - 2) / 3
	if sliceWidth == 0 {
		return string(runes[:maxChars])
	}

	start := runes[:sliceWidth]

	midStart := (len(runes) - sliceWidth) / 2
	middle := runes[midStart : midStart+sliceWidth]

	end := runes[len(runes)-sliceWidth:]

	combined := make([]rune, 0, len(start)+1+len(middle)+1+len(end))
	combined = append(combined, start...)
	combined = append(combined, ' ')
	combined = append(combined, middle...)
	combined = append(combined, ' ')
	combined = append(combined, end...)

	return string(combined)
}
