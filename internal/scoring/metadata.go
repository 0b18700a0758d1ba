// Package scoring implements the metadata, filename, and combined pair
// scoring functions of spec §4.5–§4.6, grounded on the weighted,
// reconfigurable comparison style of ivoronin-dupedog's selectSource
// (internal/deduper/deduper.go) -- several independent, individually
// skippable signals folded into one decision -- generalised here from a
// single priority order into an averaged [0,1] score.
package scoring

import (
	"strings"
	"time"

	"github.com/rknightion/paperless-dedupe/internal/model"
)

// Metadata computes the average of the independent, individually-skippable
// indicators of spec §4.5. A field present on neither document, or absent
// on one side, drops that indicator from the average rather than counting
// it as a mismatch. If every indicator is skipped, the result is 0.
func Metadata(a, b model.ScoringPayload) float64 {
	var sum float64
	var count int

	if v, ok := stringMatch(a.Correspondent, b.Correspondent); ok {
		sum += v
		count++
	}
	if v, ok := stringMatch(a.DocumentType, b.DocumentType); ok {
		sum += v
		count++
	}
	if v, ok := sizeProximity(a, b); ok {
		sum += v
		count++
	}
	if v, ok := dateProximity(a.Created, b.Created); ok {
		sum += v
		count++
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// stringMatch reports a 1/0 case-insensitive, trimmed equality indicator,
// skipped (ok=false) if either value is empty.
func stringMatch(a, b string) (value float64, ok bool) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0, false
	}
	if strings.EqualFold(a, b) {
		return 1, true
	}
	return 0, true
}

// sizeProximity prefers OriginalFileSize, falling back to ArchiveFileSize
// when either document's original size is unknown (zero).
func sizeProximity(a, b model.ScoringPayload) (float64, bool) {
	s1, s2 := a.OriginalFileSize, b.OriginalFileSize
	if s1 == 0 || s2 == 0 {
		s1, s2 = a.ArchiveFileSize, b.ArchiveFileSize
	}
	if s1 == 0 || s2 == 0 {
		return 0, false
	}

	diff := s1 - s2
	if diff < 0 {
		diff = -diff
	}
	max := s1
	if s2 > max {
		max = s2
	}

	ratio := float64(diff) / float64(max)
	if ratio > 1 {
		ratio = 1
	}
	return 1 - ratio, true
}

// dateProximity scores 1 for the same calendar day, 0.5 within 7 days, else
// 0. Skipped if either timestamp is the zero value (meaning "unknown").
func dateProximity(a, b time.Time) (float64, bool) {
	if a.IsZero() || b.IsZero() {
		return 0, false
	}

	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay == by && am == bm && ad == bd {
		return 1, true
	}

	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	if diff <= 7*24*time.Hour {
		return 0.5, true
	}
	return 0, true
}
