package minhash

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shingleSet(ids ...uint64) map[uint64]struct{} {
	s := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Invariant 1: identical shingle sets yield bitwise-identical signatures.
func TestIdenticalShinglesIdenticalSignatures(t *testing.T) {
	shingles := shingleSet(1, 2, 3, 42, 1000, 99999)

	a := New(64)
	a.Update(shingles)
	b := New(64)
	b.Update(shingles)

	assert.Equal(t, a.Signature(), b.Signature())
}

// Invariant 2: serialize/deserialize round-trips losslessly and Jaccard(m,m')==1.0.
func TestSerializeRoundTrip(t *testing.T) {
	m := New(128)
	m.Update(shingleSet(5, 10, 15, 20, 99))

	bytes := Serialize(m.Signature())
	assert.Len(t, bytes, 128*4)

	restored, err := Deserialize(bytes)
	require.NoError(t, err)

	j, err := Jaccard(m.Signature(), restored)
	require.NoError(t, err)
	assert.Equal(t, 1.0, j)
}

func TestJaccardIncompatibleLengths(t *testing.T) {
	a := New(64).Signature()
	b := New(128).Signature()
	_, err := Jaccard(a, b)
	assert.ErrorIs(t, err, errIncompatible)
}

func TestUpdateIsOrderIndependent(t *testing.T) {
	all := []uint64{7, 13, 21, 99, 1001, 2002, 3003}

	a := New(32)
	a.Update(shingleSet(all...))

	// Fold the same set in via two partial merges instead of one big Update.
	b1 := New(32)
	b1.Update(shingleSet(all[:3]...))
	b2 := New(32)
	b2.Update(shingleSet(all[3:]...))
	require.NoError(t, b1.Merge(b2))

	assert.Equal(t, a.Signature(), b1.Signature())
}

// Invariant 3: estimated Jaccard deviates from true Jaccard by < 0.15 at P=192.
func TestJaccardEstimateAccuracy(t *testing.T) {
	universe := 5000

	setA := make(map[uint64]struct{})
	setB := make(map[uint64]struct{})

	// Build two sets with a known ~60% true Jaccard overlap.
	shared := 3000
	for i := 0; i < shared; i++ {
		id := uint64(i)
		setA[id] = struct{}{}
		setB[id] = struct{}{}
	}
	for i := 0; i < 1000; i++ {
		setA[uint64(shared+i)] = struct{}{}
	}
	for i := 0; i < 1000; i++ {
		setB[uint64(shared+universe+i)] = struct{}{}
	}

	trueJaccard := float64(shared) / float64(shared+1000+1000)

	a := New(192)
	a.Update(setA)
	b := New(192)
	b.Update(setB)

	est, err := Jaccard(a.Signature(), b.Signature())
	require.NoError(t, err)

	assert.Less(t, math.Abs(est-trueJaccard), 0.15)
}

func TestDeserializeBadLength(t *testing.T) {
	_, err := Deserialize([]byte{1, 2, 3})
	assert.ErrorIs(t, err, errBadLength)
}
