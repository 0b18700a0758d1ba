package fuzzy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatioIdentical(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("hello world", "hello world"))
}

func TestRatioEmptyOnEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("", ""))
}

func TestRatioEmptyVsNonEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Ratio("", "something"))
	assert.Equal(t, 0.0, Ratio("something", ""))
}

func TestRatioPartialMatch(t *testing.T) {
	r := Ratio("kitten", "sitting")
	// Levenshtein distance is 3, max length is 7 -> ratio = 4/7 ≈ 0.571
	assert.InDelta(t, 0.571, r, 0.01)
}

func TestSampleShortTextUnchanged(t *testing.T) {
	text := "short text"
	assert.Equal(t, text, Sample(text, 4000))
}

func TestSampleLongTextIsBounded(t *testing.T) {
	text := strings.Repeat("a", 10000)
	sampled := Sample(text, 300)
	assert.LessOrEqual(t, len([]rune(sampled)), 300) // joining spaces included
}

func TestSampleIsDeterministic(t *testing.T) {
	text := strings.Repeat("document content goes here. ", 500)
	a := Sample(text, 1000)
	b := Sample(text, 1000)
	assert.Equal(t, a, b)
}
