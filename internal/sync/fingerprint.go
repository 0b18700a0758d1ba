package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/rknightion/paperless-dedupe/internal/upstream"
)

// fingerprint computes the change-detection signature for an upstream
// document (spec §4.9): SHA-256 over a canonical, order-independent
// encoding of the fields that matter for similarity/classification. Tags
// are sorted so that the upstream backend reordering a document's tag set
// without actually changing it never triggers a spurious re-sync.
func fingerprint(doc upstream.Document, tagNames []string, correspondent, documentType string) string {
	sorted := append([]string{}, tagNames...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(strconv.FormatInt(doc.ID, 10))
	b.WriteByte('\x1f')
	b.WriteString(doc.Title)
	b.WriteByte('\x1f')
	b.WriteString(doc.Content)
	b.WriteByte('\x1f')
	b.WriteString(strings.Join(sorted, ","))
	b.WriteByte('\x1f')
	b.WriteString(correspondent)
	b.WriteByte('\x1f')
	b.WriteString(documentType)
	b.WriteByte('\x1f')
	b.WriteString(doc.Created.UTC().Format("2006-01-02T15:04:05.000000000Z"))
	b.WriteByte('\x1f')
	b.WriteString(doc.Modified.UTC().Format("2006-01-02T15:04:05.000000000Z"))
	b.WriteByte('\x1f')
	b.WriteString(doc.Added.UTC().Format("2006-01-02T15:04:05.000000000Z"))
	b.WriteByte('\x1f')
	b.WriteString(doc.OriginalFileName)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// resolveNames maps a document's integer tag/correspondent/document-type
// references through the reference maps fetched once per sync, tolerating
// ids that are absent from the map (the upstream reference could have been
// deleted between the list fetch and now).
func resolveNames(ids []int64, names map[int64]string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

func resolveOptional(id *int64, names map[int64]string) string {
	if id == nil {
		return ""
	}
	return names[*id]
}
