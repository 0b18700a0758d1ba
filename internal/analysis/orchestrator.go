// Package analysis implements the ten-stage duplicate-detection pipeline
// (spec §4.8): load configuration, enumerate documents, generate or reuse
// MinHash signatures, build an LSH index, enumerate and score candidate
// pairs, form groups by union-find, and atomically reconcile them against
// the existing group set.
package analysis

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rknightion/paperless-dedupe/internal/clock"
	"github.com/rknightion/paperless-dedupe/internal/lsh"
	"github.com/rknightion/paperless-dedupe/internal/minhash"
	"github.com/rknightion/paperless-dedupe/internal/model"
	"github.com/rknightion/paperless-dedupe/internal/scoring"
	"github.com/rknightion/paperless-dedupe/internal/sigcache"
	"github.com/rknightion/paperless-dedupe/internal/store"
)

// Progress budget across the ten stages (spec §4.8). Stage numbers are
// documented at each report() call for traceability.
const (
	budgetConfigEnd      = 0.02
	budgetDocsEnd        = 0.05
	budgetSignaturesEnd  = 0.45
	budgetLSHEnd         = 0.50
	budgetCandidatesEnd  = 0.65
	budgetScoringEnd     = 0.85
	budgetGroupFormEnd   = 0.90
	budgetReconcileEnd   = 0.98
	budgetFinalizeEnd    = 1.0
)

// Orchestrator runs analysis against one store, optionally backed by a
// signature cache.
type Orchestrator struct {
	db     *sql.DB
	cache  *sigcache.Cache
	clock  clock.Clock
	logger *zap.Logger
}

// New creates an Orchestrator. cache may be nil (disabled). logger may be
// nil, in which case a no-op logger is used.
func New(db *sql.DB, cache *sigcache.Cache, clk clock.Clock, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{db: db, cache: cache, clock: clk, logger: logger}
}

// Run executes one full analysis pass per spec §4.8.
func (o *Orchestrator) Run(ctx context.Context, opts model.AnalysisOptions) (model.AnalysisResult, error) {
	start := time.Now()
	report := progressReporter(opts.OnProgress)
	result := model.AnalysisResult{}

	// Stage 1 -- load configuration.
	cfg, err := store.LoadDedupConfig(ctx, o.db)
	if err != nil {
		return result, fmt.Errorf("analysis: load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return result, fmt.Errorf("analysis: invalid config: %w", err)
	}
	report(budgetConfigEnd, "configuration loaded")

	// Stage 2 -- load documents.
	docs, err := store.DocumentsForAnalysis(ctx, o.db)
	if err != nil {
		return result, fmt.Errorf("analysis: load documents: %w", err)
	}
	if len(docs) == 0 {
		report(budgetFinalizeEnd, "no documents to analyze")
		result.DurationMS = time.Since(start).Milliseconds()
		return result, nil
	}

	docsToProcess := make([]store.DocumentSummary, 0, len(docs))
	for _, d := range docs {
		if opts.Force || d.ProcessingStatus == model.StatusPending {
			docsToProcess = append(docsToProcess, d)
		}
	}
	result.DocumentsAnalyzed = len(docsToProcess)
	report(budgetDocsEnd, fmt.Sprintf("%d documents to process", len(docsToProcess)))

	// Stage 3 -- signatures.
	regenerated, err := o.generateSignatures(ctx, docsToProcess, cfg, &result, func(frac float64, msg string) {
		report(budgetDocsEnd+(budgetSignaturesEnd-budgetDocsEnd)*frac, msg)
	})
	if err != nil {
		return result, fmt.Errorf("analysis: generate signatures: %w", err)
	}
	report(budgetSignaturesEnd, fmt.Sprintf("%d signatures generated, %d reused", result.SignaturesGenerated, result.SignaturesReused))

	// Stage 4 -- build LSH index.
	signatures, err := store.SignaturesMatching(ctx, o.db, cfg.NumPermutations)
	if err != nil {
		return result, fmt.Errorf("analysis: load signatures: %w", err)
	}
	index, err := lsh.New(cfg.NumPermutations, cfg.NumBands)
	if err != nil {
		return result, fmt.Errorf("analysis: build lsh index: %w", err)
	}
	for docID, sig := range signatures {
		index.Insert(docID, sig)
	}
	report(budgetLSHEnd, fmt.Sprintf("lsh index built over %d signatures", index.Len()))

	// Stage 5 -- candidate enumeration.
	searchScope := searchScopeFor(opts.Force, docsToProcess, signatures)
	candidates := enumerateCandidates(index, signatures, searchScope)
	result.CandidatePairsFound = len(candidates)
	report(budgetCandidatesEnd, fmt.Sprintf("%d candidate pairs found", len(candidates)))

	// Stage 6 -- scoring.
	scored, upstreamIDs, err := o.scoreCandidates(ctx, candidates, cfg, &result)
	if err != nil {
		return result, fmt.Errorf("analysis: score candidates: %w", err)
	}
	report(budgetScoringEnd, fmt.Sprintf("%d pairs scored above threshold", len(scored)))

	// Stage 7 -- group formation.
	formed := formGroups(scored, upstreamIDs, cfg, o.clock.Now())
	report(budgetGroupFormEnd, fmt.Sprintf("%d groups formed", len(formed)))

	// Stage 8 -- group reconciliation (atomic).
	if err := o.reconcileGroups(ctx, formed, upstreamIDs, &result); err != nil {
		return result, fmt.Errorf("analysis: reconcile groups: %w", err)
	}
	report(budgetReconcileEnd, "groups reconciled")

	// Stage 9 -- finalise.
	if err := o.finalize(ctx, regenerated); err != nil {
		return result, fmt.Errorf("analysis: finalize: %w", err)
	}
	report(budgetFinalizeEnd, "analysis complete")

	// Stage 10 -- return.
	result.DurationMS = time.Since(start).Milliseconds()
	return result, nil
}

func progressReporter(fn model.ProgressFunc) model.ProgressFunc {
	if fn == nil {
		return func(float64, string) {}
	}
	return fn
}

func (o *Orchestrator) finalize(ctx context.Context, regenerated []int64) error {
	if err := store.MarkCompleted(ctx, o.db, regenerated); err != nil {
		return err
	}
	state, err := store.SyncStateRow(ctx, o.db)
	if err != nil {
		return err
	}
	groupCount, err := store.CountGroups(ctx, o.db)
	if err != nil {
		return err
	}
	state.LastAnalysisAt = o.clock.Now()
	state.TotalDuplicateGroups = groupCount
	return store.UpsertSyncState(ctx, o.db, state)
}

func newGroupID() string {
	return uuid.NewString()
}

func contentHashOf(normalizedText string) string {
	sum := sha256.Sum256([]byte(normalizedText))
	return hex.EncodeToString(sum[:])
}
