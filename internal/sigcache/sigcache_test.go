package sigcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)

	_, ok := c.Lookup("abc", 192, "v1")
	assert.False(t, ok)

	assert.NoError(t, c.Store("abc", 192, "v1", []uint32{1, 2, 3}))
	assert.NoError(t, c.Close())
}

func TestStoreThenLookupWithinSameRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigs.db")
	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	sig := []uint32{10, 20, 30, 40}
	require.NoError(t, c.Store("hash-a", 4, "v1", sig))

	// Lookup reads from readDB, which is empty until the next Open; a
	// same-run Store is only visible in writeDB. Verify via round trip
	// across Close/Open instead.
	require.NoError(t, c.Close())

	c2, err := Open(path)
	require.NoError(t, err)
	defer c2.Close()

	got, ok := c2.Lookup("hash-a", 4, "v1")
	require.True(t, ok)
	assert.Equal(t, sig, got)
}

func TestLookupMissOnAlgorithmVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigs.db")
	c, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, c.Store("hash-a", 4, "v1", []uint32{1, 2, 3, 4}))
	require.NoError(t, c.Close())

	c2, err := Open(path)
	require.NoError(t, err)
	defer c2.Close()

	_, ok := c2.Lookup("hash-a", 4, "v2")
	assert.False(t, ok)
}

func TestLookupMissOnPermutationCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigs.db")
	c, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, c.Store("hash-a", 4, "v1", []uint32{1, 2, 3, 4}))
	require.NoError(t, c.Close())

	c2, err := Open(path)
	require.NoError(t, err)
	defer c2.Close()

	_, ok := c2.Lookup("hash-a", 8, "v1")
	assert.False(t, ok)
}

func TestLookupMissForUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigs.db")
	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Lookup("never-stored", 192, "v1")
	assert.False(t, ok)
}

func TestSelfCleaningSurvivesAcrossThreeRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigs.db")

	c1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c1.Store("hash-a", 4, "v1", []uint32{1, 2, 3, 4}))
	require.NoError(t, c1.Close())

	// Run 2: hit on hash-a copies it forward; hash-b is new.
	c2, err := Open(path)
	require.NoError(t, err)
	_, ok := c2.Lookup("hash-a", 4, "v1")
	require.True(t, ok)
	require.NoError(t, c2.Store("hash-b", 4, "v1", []uint32{5, 6, 7, 8}))
	require.NoError(t, c2.Close())

	// Run 3: both entries should still be present.
	c3, err := Open(path)
	require.NoError(t, err)
	defer c3.Close()

	_, ok = c3.Lookup("hash-a", 4, "v1")
	assert.True(t, ok)
	_, ok = c3.Lookup("hash-b", 4, "v1")
	assert.True(t, ok)
}
