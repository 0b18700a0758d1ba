// Package minhash implements fixed-length MinHash signatures over 64-bit
// shingle sets (spec §4.2), following the same signature-array,
// update-with-min shape as gleicon-go-for-gophers-code's chapter09
// MinHash sketch, but built to an exact (a*s+b) mod M mod 2^32 hash-family
// construction so independent processes compute identical signatures from
// the same seed.
package minhash

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// mersennePrime is the modulus M in spec §4.2: a Mersenne prime greater
// than 2^32 (2^61 - 1), large enough that (a_i*s + b_i) mod M mod 2^32
// spreads uniformly across the 32-bit output range for 64-bit shingle ids.
var mersennePrime = new(big.Int).SetUint64((1 << 61) - 1)

// MinHash is a fixed-length array of P independent minimum hash values,
// one per permutation.
type MinHash struct {
	numPermutations int
	signature       []uint32
}

// New creates a MinHash with all P signature slots at their maximum
// (0xFFFFFFFF), ready to be folded down via Update.
func New(numPermutations int) *MinHash {
	sig := make([]uint32, numPermutations)
	for i := range sig {
		sig[i] = 0xFFFFFFFF
	}
	return &MinHash{numPermutations: numPermutations, signature: sig}
}

// NumPermutations returns P.
func (m *MinHash) NumPermutations() int { return m.numPermutations }

// Signature returns the current signature slots. Callers must not mutate
// the returned slice.
func (m *MinHash) Signature() []uint32 { return m.signature }

// Update folds a shingle set into the signature: for each shingle id s and
// each permutation i, computes h_i(s) = ((a_i*s + b_i) mod M) mod 2^32 and
// keeps the running minimum. Update is commutative and associative in
// shingle order -- two MinHash objects built from the same union of
// shingles (in any order, or merged via Merge) produce the same signature.
func (m *MinHash) Update(shingles map[uint64]struct{}) {
	perms := permutations(m.numPermutations)
	for s := range shingles {
		for i, p := range perms {
			h := hashPermutation(p, s)
			if h < m.signature[i] {
				m.signature[i] = h
			}
		}
	}
}

// Merge folds another signature's minima into this one element-wise,
// equivalent to having built a single MinHash over the union of both
// objects' shingle sets.
func (m *MinHash) Merge(other *MinHash) error {
	if other.numPermutations != m.numPermutations {
		return fmt.Errorf("minhash: merge %w", errIncompatible)
	}
	for i, v := range other.signature {
		if v < m.signature[i] {
			m.signature[i] = v
		}
	}
	return nil
}

// Jaccard estimates the Jaccard similarity between two signatures of equal
// P as the fraction of matching slots. Returns errIncompatible if
// the two signatures have differing lengths (spec §4.2).
func Jaccard(a, b []uint32) (float64, error) {
	if len(a) != len(b) {
		return 0, errIncompatible
	}
	if len(a) == 0 {
		return 0, nil
	}
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a)), nil
}

// Serialize packs a signature into a little-endian byte blob of exactly
// 4*len(signature) bytes.
func Serialize(signature []uint32) []byte {
	buf := make([]byte, len(signature)*4)
	for i, v := range signature {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

// Deserialize unpacks a little-endian byte blob into a signature. Returns
// an error if the blob length is not a multiple of 4.
func Deserialize(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("minhash: deserialize: %w", errBadLength)
	}
	sig := make([]uint32, len(data)/4)
	for i := range sig {
		sig[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return sig, nil
}

// permParams holds the deterministic (a, b) constant pair for one
// permutation.
type permParams struct {
	a, b uint64
}

// permutationSeed is the fixed seed from which {a_i} and {b_i} are derived,
// so that independent processes (and repeated analysis runs) compute
// identical signatures from the same shingle set (spec §4.2).
const permutationSeed uint64 = 0x9E3779B97F4A7C15

// permCache memoizes the derived constants per P, since callers typically
// build many MinHash objects against the same configured P within one
// analysis run (Stage 3 processes every pending document).
var permCache = map[int][]permParams{}

func permutations(p int) []permParams {
	if cached, ok := permCache[p]; ok {
		return cached
	}
	perms := make([]permParams, p)
	state := permutationSeed
	for i := 0; i < p; i++ {
		state = splitmix64(state)
		a := state | 1 // force odd so a_i is coprime with 2^64
		state = splitmix64(state)
		b := state
		perms[i] = permParams{a: a, b: b}
	}
	permCache[p] = perms
	return perms
}

// splitmix64 is a fast, well-distributed deterministic PRNG step used only
// to derive the {a_i},{b_i} constant families from a fixed seed -- not used
// for hashing shingles themselves.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// hashPermutation computes h_i(s) = ((a*s + b) mod M) mod 2^32, per spec
// §4.2. The intermediate product can exceed 64 bits for large a/s, so the
// multiply-add-reduce runs in math/big; this is called at most
// numPermutations times per shingle, not per byte of document text, so the
// allocation cost is immaterial next to the I/O that produced the shingles.
func hashPermutation(p permParams, s uint64) uint32 {
	prod := new(big.Int).Mul(new(big.Int).SetUint64(p.a), new(big.Int).SetUint64(s))
	prod.Add(prod, new(big.Int).SetUint64(p.b))
	prod.Mod(prod, mersennePrime)
	return uint32(prod.Uint64())
}
