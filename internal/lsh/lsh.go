// Package lsh implements a banded Locality-Sensitive Hashing index over
// MinHash signatures (spec §4.3), grounded on the banding technique in
// gleicon-go-for-gophers-code's chapter09 LSH sketch but reworked to store
// real document ids against persisted signatures rather than recomputing
// per query, and to key each band bucket with a collision-resistant 128-bit
// hash of the band's raw bytes instead of a hand-rolled XOR fold.
package lsh

import (
	"crypto/sha256"
	"fmt"
)

// bandKey is a 128-bit digest (the first 16 bytes of SHA-256) of one band's
// packed uint32 values, used as the bucket map key.
type bandKey [16]byte

// Index partitions each P-long signature into B bands of R = P/B rows and
// maps each band's bucket key to the set of document ids sharing it.
//
// Two signatures with true Jaccard J collide in at least one band with
// probability 1 - (1 - J^R)^B (spec §4.3's rationale) -- at the default
// P=192, B=24 (R=8) recall climbs from ~0.33 at J=0.6 to ~0.99 at J=0.8.
type Index struct {
	numBands int
	rowsPerBand int
	buckets  []map[bandKey][]int64 // one bucket map per band
	byDoc    map[int64][]uint32    // doc id -> signature, served by Signature and counted by Len
}

// New creates an empty LSH index for signatures of the given permutation
// count, split into numBands bands. numPermutations must be evenly
// divisible by numBands (enforced by model.DedupConfig.Validate upstream).
func New(numPermutations, numBands int) (*Index, error) {
	if numBands <= 0 || numPermutations%numBands != 0 {
		return nil, fmt.Errorf("lsh: numBands (%d) must evenly divide numPermutations (%d)", numBands, numPermutations)
	}
	buckets := make([]map[bandKey][]int64, numBands)
	for i := range buckets {
		buckets[i] = make(map[bandKey][]int64)
	}
	return &Index{
		numBands:    numBands,
		rowsPerBand: numPermutations / numBands,
		buckets:     buckets,
		byDoc:       make(map[int64][]uint32),
	}, nil
}

// Insert adds a document's signature to every band bucket it falls into.
// Idempotent for a given (docID, signature): re-inserting the same pair
// produces duplicate entries in a bucket's slice, which Candidates
// deduplicates via a set, so callers that build a fresh Index per run (as
// Stage 4 always does) never need to worry about double-counting.
func (idx *Index) Insert(docID int64, signature []uint32) {
	idx.byDoc[docID] = signature
	for band := 0; band < idx.numBands; band++ {
		key := idx.bandKey(signature, band)
		idx.buckets[band][key] = append(idx.buckets[band][key], docID)
	}
}

// Candidates returns the union, over all bands, of document ids sharing at
// least one band bucket with the probe signature. The caller is
// responsible for removing its own id from the result if present (spec
// §4.3); Candidates does not know which, if any, document the signature
// belongs to.
func (idx *Index) Candidates(signature []uint32) map[int64]struct{} {
	seen := make(map[int64]struct{})
	for band := 0; band < idx.numBands; band++ {
		key := idx.bandKey(signature, band)
		for _, docID := range idx.buckets[band][key] {
			seen[docID] = struct{}{}
		}
	}
	return seen
}

// Signature returns the signature stored for docID, if Insert was called
// for it, and whether it was found.
func (idx *Index) Signature(docID int64) ([]uint32, bool) {
	sig, ok := idx.byDoc[docID]
	return sig, ok
}

// Len returns the number of distinct documents inserted.
func (idx *Index) Len() int { return len(idx.byDoc) }

// bandKey reduces one band's slice of the signature to a 128-bit digest.
func (idx *Index) bandKey(signature []uint32, band int) bandKey {
	start := band * idx.rowsPerBand
	end := start + idx.rowsPerBand
	if end > len(signature) {
		end = len(signature)
	}

	raw := make([]byte, 0, (end-start)*4)
	for _, v := range signature[start:end] {
		raw = append(raw, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}

	digest := sha256.Sum256(raw)
	var key bandKey
	copy(key[:], digest[:16])
	return key
}
