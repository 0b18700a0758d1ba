package analysis

import (
	"context"
	"fmt"

	"github.com/rknightion/paperless-dedupe/internal/lsh"
	"github.com/rknightion/paperless-dedupe/internal/minhash"
	"github.com/rknightion/paperless-dedupe/internal/model"
	"github.com/rknightion/paperless-dedupe/internal/scoring"
	"github.com/rknightion/paperless-dedupe/internal/store"
)

// searchScopeFor determines which documents Stage 5 probes the LSH index
// with: every signed document when force is set (a full re-scan), or only
// the documents processed this run otherwise -- an incrementally run
// analysis still finds pairs against the unchanged rest of the corpus
// because the index itself was built over every signature, not just the
// scope.
func searchScopeFor(force bool, docsToProcess []store.DocumentSummary, signatures map[int64][]uint32) []int64 {
	if force {
		scope := make([]int64, 0, len(signatures))
		for id := range signatures {
			scope = append(scope, id)
		}
		return scope
	}

	scope := make([]int64, 0, len(docsToProcess))
	for _, d := range docsToProcess {
		if _, ok := signatures[d.ID]; ok {
			scope = append(scope, d.ID)
		}
	}
	return scope
}

// enumerateCandidates implements Stage 5: probe the LSH index with every
// document in scope, estimate Jaccard from the stored signatures, and key
// each pair canonically so a symmetric probe (A finds B, B finds A) is
// recorded once.
func enumerateCandidates(index *lsh.Index, signatures map[int64][]uint32, scope []int64) map[[2]int64]float64 {
	candidates := make(map[[2]int64]float64)
	for _, docID := range scope {
		sig, ok := index.Signature(docID)
		if !ok {
			continue
		}
		for otherID := range index.Candidates(sig) {
			if otherID == docID {
				continue
			}
			a, b := model.CanonicalPairKey(docID, otherID)
			key := [2]int64{a, b}
			if _, seen := candidates[key]; seen {
				continue
			}
			otherSig, ok := signatures[otherID]
			if !ok {
				continue
			}
			jaccard, err := minhash.Jaccard(sig, otherSig)
			if err != nil {
				continue
			}
			candidates[key] = jaccard
		}
	}
	return candidates
}

// scoreCandidates implements Stage 6: pre-filter cheap candidates, batch
// load the payloads needed to score the survivors, and retain only pairs
// whose overall confidence clears the configured threshold.
func (o *Orchestrator) scoreCandidates(ctx context.Context, candidates map[[2]int64]float64, cfg model.DedupConfig, result *model.AnalysisResult) ([]model.CandidatePair, map[int64]int64, error) {
	survivors := make(map[[2]int64]float64, len(candidates))
	idSet := make(map[int64]struct{})
	for key, jaccard := range candidates {
		if !scoring.PassesPreFilter(cfg, jaccard) {
			continue
		}
		survivors[key] = jaccard
		idSet[key[0]] = struct{}{}
		idSet[key[1]] = struct{}{}
	}

	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	sampleChars := 0
	if cfg.ConfidenceWeightFuzzy > 0 {
		sampleChars = cfg.FuzzySampleSize
	}
	payloads, err := store.ScoringPayloads(ctx, o.db, ids, sampleChars)
	if err != nil {
		return nil, nil, fmt.Errorf("load scoring payloads: %w", err)
	}

	upstreamIDs := make(map[int64]int64, len(payloads))
	for id, p := range payloads {
		upstreamIDs[id] = p.UpstreamID
	}

	scored := make([]model.CandidatePair, 0, len(survivors))
	for key, jaccard := range survivors {
		a, ok := payloads[key[0]]
		if !ok {
			continue
		}
		b, ok := payloads[key[1]]
		if !ok {
			continue
		}
		pair := scoring.Score(cfg, jaccard, a, b)
		pair.DocA, pair.DocB = key[0], key[1]
		result.CandidatePairsScored++
		if pair.Overall >= cfg.SimilarityThreshold {
			scored = append(scored, pair)
		}
	}
	return scored, upstreamIDs, nil
}
