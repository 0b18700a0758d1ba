package text

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrTooShort is a sentinel returned by Shingle when the document has fewer
// tokens than minWords. Not an error condition per spec §4.1/§7 -- callers
// should treat it as "no signature for this document" (model.ErrDocumentTooShort).
var ErrTooShort = shingleTooShortError{}

type shingleTooShortError struct{}

func (shingleTooShortError) Error() string { return "document has fewer than min_words tokens" }

// Shingle splits normalizedText on single spaces and slides an n-token
// window across the result, hashing each window to a 64-bit shingle id with
// xxhash (a well-distributed non-cryptographic hash, chosen over a
// cryptographic digest purely for speed -- shingle ids are never persisted
// outside one analysis run). Duplicate windows collapse into the same set
// member. Returns ErrTooShort if the token count is below minWords or no
// full n-token window fits.
func Shingle(normalizedText string, n, minWords int) (map[uint64]struct{}, error) {
	if normalizedText == "" {
		return nil, ErrTooShort
	}

	tokens := strings.Split(normalizedText, " ")
	if len(tokens) < minWords {
		return nil, ErrTooShort
	}

	shingles := make(map[uint64]struct{}, len(tokens))
	for i := 0; i+n <= len(tokens); i++ {
		window := strings.Join(tokens[i:i+n], " ")
		id := xxhash.Sum64String(window)
		shingles[id] = struct{}{}
	}
	if len(shingles) == 0 {
		return nil, ErrTooShort
	}

	return shingles, nil
}
