package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rknightion/paperless-dedupe/internal/model"
)

// configKeys enumerates the key/value config table's rows in the order
// they're recognised (spec §6). Unknown keys in the table are ignored;
// missing keys fall back to the default for that field.
var configKeys = []string{
	"num_permutations", "num_bands", "ngram_size", "min_words",
	"similarity_threshold",
	"confidence_weight_jaccard", "confidence_weight_fuzzy", "confidence_weight_metadata", "confidence_weight_filename",
	"fuzzy_sample_size", "auto_analyze", "algorithm_version",
}

// LoadDedupConfig reads the persisted config overrides, if any, layered
// over DefaultDedupConfig (spec §6: "a process-scoped immutable record
// loaded per analysis run"). A row for a key that fails to parse is
// treated as absent rather than aborting the load.
func LoadDedupConfig(ctx context.Context, q querier) (model.DedupConfig, error) {
	cfg := model.DefaultDedupConfig()

	rows, err := q.QueryContext(ctx, `SELECT key, value FROM config_kv`)
	if err != nil {
		return cfg, fmt.Errorf("store: load config: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return cfg, fmt.Errorf("store: scan config row: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return cfg, err
	}

	if v, ok := intValue(values, "num_permutations"); ok {
		cfg.NumPermutations = v
	}
	if v, ok := intValue(values, "num_bands"); ok {
		cfg.NumBands = v
	}
	if v, ok := intValue(values, "ngram_size"); ok {
		cfg.NgramSize = v
	}
	if v, ok := intValue(values, "min_words"); ok {
		cfg.MinWords = v
	}
	if v, ok := floatValue(values, "similarity_threshold"); ok {
		cfg.SimilarityThreshold = v
	}
	if v, ok := intValue(values, "confidence_weight_jaccard"); ok {
		cfg.ConfidenceWeightJaccard = v
	}
	if v, ok := intValue(values, "confidence_weight_fuzzy"); ok {
		cfg.ConfidenceWeightFuzzy = v
	}
	if v, ok := intValue(values, "confidence_weight_metadata"); ok {
		cfg.ConfidenceWeightMetadata = v
	}
	if v, ok := intValue(values, "confidence_weight_filename"); ok {
		cfg.ConfidenceWeightFilename = v
	}
	if v, ok := intValue(values, "fuzzy_sample_size"); ok {
		cfg.FuzzySampleSize = v
	}
	if v, ok := boolValue(values, "auto_analyze"); ok {
		cfg.AutoAnalyze = v
	}
	if v, ok := values["algorithm_version"]; ok && v != "" {
		cfg.AlgorithmVersion = v
	}

	return cfg, nil
}

// SaveDedupConfig persists every recognised field of cfg into the
// key/value config table, overwriting any previous values.
func SaveDedupConfig(ctx context.Context, q querier, cfg model.DedupConfig) error {
	values := map[string]string{
		"num_permutations":           strconv.Itoa(cfg.NumPermutations),
		"num_bands":                  strconv.Itoa(cfg.NumBands),
		"ngram_size":                 strconv.Itoa(cfg.NgramSize),
		"min_words":                  strconv.Itoa(cfg.MinWords),
		"similarity_threshold":       strconv.FormatFloat(cfg.SimilarityThreshold, 'f', -1, 64),
		"confidence_weight_jaccard":  strconv.Itoa(cfg.ConfidenceWeightJaccard),
		"confidence_weight_fuzzy":    strconv.Itoa(cfg.ConfidenceWeightFuzzy),
		"confidence_weight_metadata": strconv.Itoa(cfg.ConfidenceWeightMetadata),
		"confidence_weight_filename": strconv.Itoa(cfg.ConfidenceWeightFilename),
		"fuzzy_sample_size":          strconv.Itoa(cfg.FuzzySampleSize),
		"auto_analyze":               strconv.FormatBool(cfg.AutoAnalyze),
		"algorithm_version":          cfg.AlgorithmVersion,
	}

	for _, key := range configKeys {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO config_kv (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, values[key]); err != nil {
			return fmt.Errorf("store: save config key %s: %w", key, err)
		}
	}
	return nil
}

func intValue(values map[string]string, key string) (int, bool) {
	raw, ok := values[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func floatValue(values map[string]string, key string) (float64, bool) {
	raw, ok := values[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func boolValue(values map[string]string, key string) (bool, bool) {
	raw, ok := values[key]
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
