package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rknightion/paperless-dedupe/internal/model"
)

func TestMetadataAllSkippedReturnsZero(t *testing.T) {
	a := model.ScoringPayload{}
	b := model.ScoringPayload{}
	assert.Equal(t, 0.0, Metadata(a, b))
}

func TestMetadataCorrespondentCaseInsensitive(t *testing.T) {
	a := model.ScoringPayload{Correspondent: "Acme Corp"}
	b := model.ScoringPayload{Correspondent: "acme corp"}
	assert.Equal(t, 1.0, Metadata(a, b))
}

func TestMetadataMixedIndicators(t *testing.T) {
	now := time.Now()
	a := model.ScoringPayload{
		Correspondent:    "Acme",
		DocumentType:     "invoice",
		OriginalFileSize: 1000,
		Created:          now,
	}
	b := model.ScoringPayload{
		Correspondent:    "Other",
		DocumentType:     "invoice",
		OriginalFileSize: 1100,
		Created:          now,
	}
	got := Metadata(a, b)
	// correspondent=0, doctype=1, size=1-100/1100, date=1 -> mean of 4
	want := (0 + 1 + (1 - 100.0/1100.0) + 1) / 4
	assert.InDelta(t, want, got, 0.0001)
}

func TestMetadataDateProximityWithinWeek(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := model.ScoringPayload{Created: base}
	b := model.ScoringPayload{Created: base.Add(5 * 24 * time.Hour)}
	assert.Equal(t, 0.5, Metadata(a, b))
}

func TestFilenameMissingReturnsZero(t *testing.T) {
	assert.Equal(t, 0.0, Filename("", "invoice.pdf"))
	assert.Equal(t, 0.0, Filename("invoice.pdf", ""))
}

func TestFilenameTokenOverlap(t *testing.T) {
	got := Filename("2024-invoice-acme.pdf", "acme-invoice-2024-copy.pdf")
	assert.Greater(t, got, 0.5)
}

func TestFilenameIdentical(t *testing.T) {
	assert.Equal(t, 1.0, Filename("report_final.pdf", "report_final.pdf"))
}

func TestScoreOnlyJaccardActive(t *testing.T) {
	cfg := model.DefaultDedupConfig()
	cfg.ConfidenceWeightJaccard = 100
	cfg.ConfidenceWeightFuzzy = 0
	cfg.ConfidenceWeightMetadata = 0
	cfg.ConfidenceWeightFilename = 0

	pair := Score(cfg, 0.85, model.ScoringPayload{}, model.ScoringPayload{})
	assert.Equal(t, 0.85, pair.Overall)
	assert.Equal(t, 0.0, pair.FuzzyTextRatio)
}

func TestScoreNoActiveComponentsReturnsZero(t *testing.T) {
	cfg := model.DefaultDedupConfig()
	cfg.ConfidenceWeightJaccard = 0
	cfg.ConfidenceWeightFuzzy = 0
	cfg.ConfidenceWeightMetadata = 0
	cfg.ConfidenceWeightFilename = 0

	pair := Score(cfg, 0.9, model.ScoringPayload{}, model.ScoringPayload{})
	assert.Equal(t, 0.0, pair.Overall)
}

func TestScoreFuzzySkippedWhenTextMissing(t *testing.T) {
	cfg := model.DefaultDedupConfig()
	cfg.ConfidenceWeightJaccard = 50
	cfg.ConfidenceWeightFuzzy = 50

	a := model.ScoringPayload{}
	b := model.ScoringPayload{}
	pair := Score(cfg, 0.6, a, b)
	// fuzzy unavailable -- overall should equal jaccard alone
	assert.Equal(t, 0.6, pair.Overall)
}

func TestScoreWeightedBlend(t *testing.T) {
	cfg := model.DefaultDedupConfig()
	cfg.ConfidenceWeightJaccard = 90
	cfg.ConfidenceWeightFuzzy = 10
	cfg.ConfidenceWeightMetadata = 0
	cfg.ConfidenceWeightFilename = 0

	a := model.ScoringPayload{SampledText: "the quick brown fox"}
	b := model.ScoringPayload{SampledText: "the quick brown fox"}

	pair := Score(cfg, 0.5, a, b)
	want := (90*0.5 + 10*1.0) / 100
	assert.InDelta(t, want, pair.Overall, 0.0001)
}

func TestPassesPreFilter(t *testing.T) {
	cfg := model.DefaultDedupConfig()
	cfg.SimilarityThreshold = 0.72

	assert.True(t, PassesPreFilter(cfg, 0.6))
	assert.False(t, PassesPreFilter(cfg, 0.5))
}
