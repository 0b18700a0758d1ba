package scoring

import (
	"github.com/rknightion/paperless-dedupe/internal/fuzzy"
	"github.com/rknightion/paperless-dedupe/internal/model"
)

// weightedComponent pairs a configured weight with its computed value.
type weightedComponent struct {
	weight int
	value  float64
}

// Score combines jaccard, fuzzy, metadata, and filename similarity into the
// pair's overall confidence (spec §4.6). jaccard is the LSH-stage MinHash
// estimate; a and b are the documents' scoring payloads. When the fuzzy
// weight is zero, or either payload's SampledText is empty, the fuzzy
// component is treated as unavailable and excluded from the weighted mean
// rather than scored as a mismatch.
//
// Only weights greater than zero whose underlying component could be
// computed contribute to the mean; if none contribute, the returned pair's
// overall score is zero (its Jaccard field still holds the input estimate).
func Score(cfg model.DedupConfig, jaccard float64, a, b model.ScoringPayload) model.CandidatePair {
	pair := model.CandidatePair{Jaccard: jaccard}

	components := make([]weightedComponent, 0, 4)

	if cfg.ConfidenceWeightJaccard > 0 {
		components = append(components, weightedComponent{cfg.ConfidenceWeightJaccard, jaccard})
	}
	if cfg.ConfidenceWeightFuzzy > 0 && a.SampledText != "" && b.SampledText != "" {
		pair.FuzzyTextRatio = fuzzy.Ratio(a.SampledText, b.SampledText)
		components = append(components, weightedComponent{cfg.ConfidenceWeightFuzzy, pair.FuzzyTextRatio})
	}
	if cfg.ConfidenceWeightMetadata > 0 {
		pair.MetadataSimilarity = Metadata(a, b)
		components = append(components, weightedComponent{cfg.ConfidenceWeightMetadata, pair.MetadataSimilarity})
	}
	if cfg.ConfidenceWeightFilename > 0 {
		pair.FilenameSimilarity = Filename(a.OriginalFileName, b.OriginalFileName)
		components = append(components, weightedComponent{cfg.ConfidenceWeightFilename, pair.FilenameSimilarity})
	}

	var weightedSum float64
	var totalWeight int
	for _, c := range components {
		weightedSum += float64(c.weight) * c.value
		totalWeight += c.weight
	}
	if totalWeight > 0 {
		pair.Overall = weightedSum / float64(totalWeight)
	}

	return pair
}

// PassesPreFilter reports whether a candidate's estimated Jaccard clears the
// cheap pre-scoring threshold of spec §4.6 (0.8 of the configured
// similarity_threshold), used to skip fuzzy/metadata work on pairs that
// cannot possibly reach the final cutoff.
func PassesPreFilter(cfg model.DedupConfig, jaccard float64) bool {
	return jaccard >= 0.8*cfg.SimilarityThreshold
}
