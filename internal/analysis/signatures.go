package analysis

import (
	"context"
	"fmt"

	"github.com/rknightion/paperless-dedupe/internal/minhash"
	"github.com/rknightion/paperless-dedupe/internal/model"
	"github.com/rknightion/paperless-dedupe/internal/store"
	"github.com/rknightion/paperless-dedupe/internal/text"
)

// generateSignatures implements Stage 3: reuse a document's existing
// signature when its num_permutations matches the config, otherwise
// shingle its normalized text and fold it into a fresh MinHash. Returns
// the ids whose signature was (re)generated this run -- the set Stage 9
// marks completed.
func (o *Orchestrator) generateSignatures(ctx context.Context, docs []store.DocumentSummary, cfg model.DedupConfig, result *model.AnalysisResult, report model.ProgressFunc) ([]int64, error) {
	ids := make([]int64, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	normalizedText, err := store.NormalizedTextByID(ctx, o.db, ids)
	if err != nil {
		return nil, fmt.Errorf("load normalized text: %w", err)
	}

	var regenerated []int64
	for i, doc := range docs {
		existing, hasExisting, err := store.Signature(ctx, o.db, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("load signature for document %d: %w", doc.ID, err)
		}
		if hasExisting && existing.NumPermutations == cfg.NumPermutations {
			result.SignaturesReused++
			continue
		}

		normalized, ok := normalizedText[doc.ID]
		if !ok || normalized == "" {
			continue // no content to shingle
		}

		shingles, err := text.Shingle(normalized, cfg.NgramSize, cfg.MinWords)
		if err != nil {
			continue // spec §7 DocumentTooShort: not an error, no signature written
		}

		hash := contentHashOf(normalized)
		signature := o.lookupOrCompute(hash, cfg, shingles)

		if err := store.UpsertSignature(ctx, o.db, model.DocumentSignature{
			DocumentID:       doc.ID,
			MinHashSignature: minhash.Serialize(signature),
			AlgorithmVersion: cfg.AlgorithmVersion,
			NumPermutations:  cfg.NumPermutations,
			CreatedAt:        o.clock.Now(),
		}); err != nil {
			return nil, fmt.Errorf("store signature for document %d: %w", doc.ID, err)
		}

		result.SignaturesGenerated++
		regenerated = append(regenerated, doc.ID)

		if len(docs) > 0 {
			report(float64(i+1)/float64(len(docs)), fmt.Sprintf("signature %d/%d", i+1, len(docs)))
		}
	}
	return regenerated, nil
}

// lookupOrCompute consults the signature cache before paying for a fresh
// MinHash fold, keyed by content hash so two documents with identical
// normalized text share one computation (spec §4.10's cache expansion).
func (o *Orchestrator) lookupOrCompute(contentHash string, cfg model.DedupConfig, shingles map[uint64]struct{}) []uint32 {
	if o.cache != nil {
		if cached, ok := o.cache.Lookup(contentHash, cfg.NumPermutations, cfg.AlgorithmVersion); ok {
			return cached
		}
	}

	m := minhash.New(cfg.NumPermutations)
	m.Update(shingles)
	signature := m.Signature()

	if o.cache != nil {
		_ = o.cache.Store(contentHash, cfg.NumPermutations, cfg.AlgorithmVersion, signature)
	}
	return signature
}
