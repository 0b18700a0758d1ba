package model

import "errors"

// Error taxonomy for the dedup core and sync engine (spec §7).
//
// Sentinel errors are wrapped with fmt.Errorf("...: %w", ErrX) at the call
// site and unwrapped with errors.Is rather than string matching.
var (
	// ErrUpstreamAuth is returned for 401/403 responses. Not retried; the
	// caller must surface this and abort without mutating local state.
	ErrUpstreamAuth = errors.New("upstream authentication failed")

	// ErrUpstreamUnavailable is returned after retries are exhausted on a
	// network-layer failure. Surfaced; sync aborts without mutation.
	ErrUpstreamUnavailable = errors.New("upstream backend unavailable")

	// ErrUpstreamProtocol marks a response that could not be parsed into the
	// expected shape. Logged and the offending document is skipped.
	ErrUpstreamProtocol = errors.New("upstream returned an unexpected response shape")

	// ErrDocumentTooShort is not a failure: it marks a document whose word
	// count is below min_words, or whose shingle set is empty. The document
	// gets no signature and cannot appear in any group.
	ErrDocumentTooShort = errors.New("document too short to shingle")

	// ErrSignatureMismatch marks two signatures with differing
	// num_permutations. Fatal for that one comparison only.
	ErrSignatureMismatch = errors.New("incompatible minhash signature lengths")

	// ErrScoringFailure marks a pair that could not be scored on one or more
	// components (e.g. missing sampled text for the fuzzy component).
	ErrScoringFailure = errors.New("pair scoring failed")

	// ErrStorageError wraps a persistence-layer constraint violation. The
	// enclosing transaction is rolled back and this is surfaced to the caller.
	ErrStorageError = errors.New("storage error")
)
