package text

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCollapsesWhitespaceAndFolds(t *testing.T) {
	n := Normalize("  The\tQUICK  Brown\nFox \r\n")
	assert.Equal(t, "the quick brown fox", n.Text)
	assert.Equal(t, 4, n.WordCount)
	assert.Len(t, n.ContentHash, 64)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	a := Normalize("Hello   World")
	b := Normalize("Hello   World")
	assert.Equal(t, a, b)
}

func TestNormalizeEmpty(t *testing.T) {
	n := Normalize("")
	assert.Equal(t, "", n.Text)
	assert.Equal(t, 0, n.WordCount)
}

func TestShingleTooShort(t *testing.T) {
	n := Normalize("just five little words here")
	_, err := Shingle(n.Text, 5, 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooShort))
}

func TestShingleProducesStableSet(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 5)
	n := Normalize(text)

	s1, err := Shingle(n.Text, 5, 20)
	require.NoError(t, err)
	s2, err := Shingle(n.Text, 5, 20)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.NotEmpty(t, s1)
}

func TestShingleDeduplicatesRepeatedWindows(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon ", 6)
	n := Normalize(text)

	shingles, err := Shingle(n.Text, 5, 20)
	require.NoError(t, err)

	// The text is a repeating 5-word cycle, so a 5-word sliding window
	// produces only 5 distinct shingles no matter how many repeats.
	assert.Len(t, shingles, 5)
}

func TestShingleIdenticalTextsProduceIdenticalSets(t *testing.T) {
	a := Normalize("one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty")
	b := Normalize("One  Two Three Four Five Six Seven Eight Nine Ten Eleven Twelve Thirteen Fourteen Fifteen Sixteen Seventeen Eighteen Nineteen Twenty")

	sa, err := Shingle(a.Text, 5, 20)
	require.NoError(t, err)
	sb, err := Shingle(b.Text, 5, 20)
	require.NoError(t, err)

	assert.Equal(t, sa, sb)
}
