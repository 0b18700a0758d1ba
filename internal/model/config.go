package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DedupConfig is the process-scoped immutable record loaded once per
// analysis run (spec §6). DefaultDedupConfig returns the defaults noted below.
type DedupConfig struct {
	NumPermutations int // MinHash length. Default 192.
	NumBands        int // LSH band count; must divide NumPermutations. Default 24.
	NgramSize       int // Shingle window width. Default 5.
	MinWords        int // Minimum tokens for a document to be shingled. Default 20.

	SimilarityThreshold float64 // Final cutoff for group membership. Default 0.72.

	ConfidenceWeightJaccard  int // Default 90.
	ConfidenceWeightFuzzy    int // Default 10.
	ConfidenceWeightMetadata int // Default 0.
	ConfidenceWeightFilename int // Default 0.

	FuzzySampleSize int // Cap on chars submitted to the fuzzy ratio. Default ~4000.

	AutoAnalyze bool // Whether analysis is triggered after a successful sync.

	// AlgorithmVersion is an opaque string tag. Changing it makes existing
	// sigcache entries miss, but Stage 3 reuses stored signatures on a
	// num_permutations match alone, and it does NOT, by itself, discard
	// existing groups -- see SPEC_FULL.md §9 Open Questions.
	AlgorithmVersion string
}

// DefaultDedupConfig returns the default configuration. It passes Validate:
// 24 bands divide 192 permutations into rows of 8.
func DefaultDedupConfig() DedupConfig {
	return DedupConfig{
		NumPermutations:          192,
		NumBands:                 24,
		NgramSize:                5,
		MinWords:                 20,
		SimilarityThreshold:      0.72,
		ConfidenceWeightJaccard:  90,
		ConfidenceWeightFuzzy:    10,
		ConfidenceWeightMetadata: 0,
		ConfidenceWeightFilename: 0,
		FuzzySampleSize:          4000,
		AutoAnalyze:              true,
		AlgorithmVersion:         "v1",
	}
}

// Validate enforces the structural invariants spec.md states only in prose:
// band divisibility, non-negative weights, a threshold in [0,1], and
// positive shingling parameters. A config that fails validation must not be
// used to start an analysis run.
func (c DedupConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.NumPermutations, validation.Required, validation.Min(1)),
		validation.Field(&c.NumBands, validation.Required, validation.Min(1), validation.By(c.bandsDividePermutations)),
		validation.Field(&c.NgramSize, validation.Required, validation.Min(1)),
		validation.Field(&c.MinWords, validation.Required, validation.Min(1)),
		validation.Field(&c.SimilarityThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.ConfidenceWeightJaccard, validation.Min(0)),
		validation.Field(&c.ConfidenceWeightFuzzy, validation.Min(0)),
		validation.Field(&c.ConfidenceWeightMetadata, validation.Min(0)),
		validation.Field(&c.ConfidenceWeightFilename, validation.Min(0)),
		validation.Field(&c.FuzzySampleSize, validation.Min(0)),
		validation.Field(&c.AlgorithmVersion, validation.Required),
	)
}

func (c DedupConfig) bandsDividePermutations(value interface{}) error {
	bands, _ := value.(int)
	if bands == 0 {
		return nil // caught by Required above
	}
	if c.NumPermutations%bands != 0 {
		return validation.NewError("validation_bands_divide", "num_bands must evenly divide num_permutations")
	}
	return nil
}
