package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rknightion/paperless-dedupe/internal/store"
)

// newServeStubCmd creates the serve-stub subcommand. The dedup core's job
// queue and HTTP surface are out of scope (Non-goals); this prints the
// effective DedupConfig so an operator can inspect or script against it
// without standing up the full service.
func newServeStubCmd() *cobra.Command {
	var opts commonOptions

	cmd := &cobra.Command{
		Use:   "serve-stub",
		Short: "Print the effective deduplication configuration and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServeStub(&opts)
		},
	}
	cmd.Flags().StringVar(&opts.dbPath, "db", "dedupe-core.db", "Path to the local SQLite store")

	return cmd
}

func runServeStub(opts *commonOptions) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	cfg, err := store.LoadDedupConfig(context.Background(), st.DB())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Printf("num_permutations: %d\n", cfg.NumPermutations)
	fmt.Printf("num_bands: %d\n", cfg.NumBands)
	fmt.Printf("ngram_size: %d\n", cfg.NgramSize)
	fmt.Printf("min_words: %d\n", cfg.MinWords)
	fmt.Printf("similarity_threshold: %.2f\n", cfg.SimilarityThreshold)
	fmt.Printf("confidence_weight_jaccard: %d\n", cfg.ConfidenceWeightJaccard)
	fmt.Printf("confidence_weight_fuzzy: %d\n", cfg.ConfidenceWeightFuzzy)
	fmt.Printf("confidence_weight_metadata: %d\n", cfg.ConfidenceWeightMetadata)
	fmt.Printf("confidence_weight_filename: %d\n", cfg.ConfidenceWeightFilename)
	fmt.Printf("fuzzy_sample_size: %d\n", cfg.FuzzySampleSize)
	fmt.Printf("auto_analyze: %t\n", cfg.AutoAnalyze)
	fmt.Printf("algorithm_version: %s\n", cfg.AlgorithmVersion)
	return nil
}
