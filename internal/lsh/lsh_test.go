package lsh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rknightion/paperless-dedupe/internal/minhash"
)

func sigFor(shingles ...uint64) []uint32 {
	m := minhash.New(192)
	set := make(map[uint64]struct{}, len(shingles))
	for _, s := range shingles {
		set[s] = struct{}{}
	}
	m.Update(set)
	return m.Signature()
}

func TestNewRejectsNonDivisibleBands(t *testing.T) {
	_, err := New(192, 25)
	assert.Error(t, err)
}

func TestInsertAndCandidatesFindsNearDuplicate(t *testing.T) {
	idx, err := New(192, 24)
	require.NoError(t, err)

	base := make([]uint64, 0, 100)
	for i := 0; i < 100; i++ {
		base = append(base, uint64(i))
	}

	sigA := sigFor(base...)
	// sigB shares 95 of 100 shingles with sigA -- high true Jaccard.
	nearDup := append(append([]uint64{}, base[:95]...), 9001, 9002, 9003, 9004, 9005)
	sigB := sigFor(nearDup...)

	idx.Insert(1, sigA)
	idx.Insert(2, sigB)

	candidates := idx.Candidates(sigA)
	delete(candidates, 1) // caller removes its own id
	assert.Contains(t, candidates, int64(2))
}

func TestCandidatesEmptyForUnrelatedDocuments(t *testing.T) {
	idx, err := New(192, 24)
	require.NoError(t, err)

	sigA := sigFor(1, 2, 3, 4, 5)
	sigB := sigFor(1000000, 2000000, 3000000, 4000000, 5000000)

	idx.Insert(1, sigA)
	idx.Insert(2, sigB)

	candidates := idx.Candidates(sigA)
	delete(candidates, 1)
	assert.Empty(t, candidates)
}

func TestSignatureLookup(t *testing.T) {
	idx, err := New(128, 16)
	require.NoError(t, err)

	sig := sigFor(1, 2, 3)
	idx.Insert(42, sig)

	got, ok := idx.Signature(42)
	assert.True(t, ok)
	assert.Equal(t, sig, got)

	_, ok = idx.Signature(999)
	assert.False(t, ok)
}
