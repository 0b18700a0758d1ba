// Package sync mirrors the upstream document corpus into local storage
// and marks changed documents pending for the next analysis run (spec
// §4.9), grounded on ivoronin-dupedog's scanner/collector concurrency
// shape (internal/scanner) but walking a paginated HTTP API instead of a
// filesystem tree.
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	stdsync "sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rknightion/paperless-dedupe/internal/clock"
	"github.com/rknightion/paperless-dedupe/internal/model"
	"github.com/rknightion/paperless-dedupe/internal/store"
	"github.com/rknightion/paperless-dedupe/internal/text"
	"github.com/rknightion/paperless-dedupe/internal/upstream"
)

const (
	defaultPageSize            = 100
	defaultMaxOCRLength        = 50000
	defaultMetadataConcurrency = 10
	maxReportedErrors          = 50

	refBudgetEnd      = 0.02
	iterationBudgetEnd = 0.20
	drainBudgetEnd    = 0.95
)

// Engine runs sync operations against one store and one upstream client.
type Engine struct {
	db     *sql.DB
	client *upstream.Client
	clock  clock.Clock
	logger *zap.Logger
}

// New creates a sync Engine. logger may be nil, in which case a no-op
// logger is used.
func New(db *sql.DB, client *upstream.Client, clk clock.Clock, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{db: db, client: client, clock: clk, logger: logger}
}

// Run executes one sync per spec §4.9.
func (e *Engine) Run(ctx context.Context, opts model.SyncOptions) (model.SyncResult, error) {
	start := time.Now()
	report := progressReporter(opts.OnProgress)

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	maxOCRLength := opts.MaxOCRLength
	if maxOCRLength <= 0 {
		maxOCRLength = defaultMaxOCRLength
	}
	metadataConcurrency := opts.MetadataConcurrency
	if metadataConcurrency <= 0 {
		metadataConcurrency = defaultMetadataConcurrency
	}

	result := model.SyncResult{}
	errs := newErrorSink()

	if opts.PurgeBeforeSync {
		purged, err := store.CountDocuments(ctx, e.db)
		if err != nil {
			return result, fmt.Errorf("sync: count documents before purge: %w", err)
		}
		if err := store.PurgeAll(ctx, e.db); err != nil {
			return result, fmt.Errorf("sync: purge before sync: %w", err)
		}
		result.Deleted = purged
	}

	syncState, err := store.SyncStateRow(ctx, e.db)
	if err != nil {
		return result, fmt.Errorf("sync: load sync state: %w", err)
	}
	incremental := !opts.ForceFullSync && !syncState.LastSyncAt.IsZero()

	report(0, "loading reference data")
	stats, err := e.client.Statistics(ctx)
	if err != nil {
		return result, fmt.Errorf("sync: fetch statistics: %w", err)
	}
	tagNames, correspondentNames, docTypeNames, err := e.loadReferenceMaps(ctx)
	if err != nil {
		return result, fmt.Errorf("sync: load reference maps: %w", err)
	}
	report(refBudgetEnd, "reference data loaded")

	fingerprints, err := store.Fingerprints(ctx, e.db)
	if err != nil {
		return result, fmt.Errorf("sync: load fingerprints: %w", err)
	}

	documentsTotal := stats.DocumentsTotal
	if documentsTotal <= 0 {
		documentsTotal = 1
	}

	var wg stdsync.WaitGroup
	sem := newSemaphore(metadataConcurrency)
	var jobsQueued, jobsCompleted atomic.Int64

	processed := 0
pageLoop:
	for page := 1; ; page++ {
		listPage, err := e.client.ListDocuments(ctx, page, pageSize)
		if err != nil {
			if errors.Is(err, model.ErrUpstreamAuth) || errors.Is(err, model.ErrUpstreamUnavailable) {
				return result, fmt.Errorf("sync: list documents: %w", err)
			}
			errs.add(fmt.Sprintf("list documents page %d: %v", page, err))
			break pageLoop
		}
		if len(listPage.Results) == 0 {
			break
		}

		for _, item := range listPage.Results {
			outcome, err := e.processDocument(ctx, item.ID, fingerprints, tagNames, correspondentNames, docTypeNames, maxOCRLength)
			processed++
			if err != nil {
				if errors.Is(err, model.ErrUpstreamAuth) || errors.Is(err, model.ErrUpstreamUnavailable) {
					return result, fmt.Errorf("sync: fetch document %d: %w", item.ID, err)
				}
				errs.add(fmt.Sprintf("document %d: %v", item.ID, err))
				continue
			}

			switch outcome.kind {
			case outcomeInserted:
				result.Inserted++
			case outcomeUpdated:
				result.Updated++
			case outcomeSkipped:
				result.Skipped++
				continue
			}

			jobsQueued.Add(1)
			wg.Add(1)
			e.enqueueMetadataFetch(ctx, sem, &wg, &jobsCompleted, errs, outcome.localID, outcome.upstreamID)
		}

		frac := refBudgetEnd + (iterationBudgetEnd-refBudgetEnd)*float64(processed)/float64(documentsTotal)
		if frac > iterationBudgetEnd {
			frac = iterationBudgetEnd
		}
		report(frac, fmt.Sprintf("synced %d documents", processed))

		// The list is ordered newest first: once a page's oldest document
		// predates the last sync, no later page can hold a change.
		if incremental {
			oldest := listPage.Results[len(listPage.Results)-1].Modified
			if !oldest.IsZero() && oldest.Before(syncState.LastSyncAt) {
				break
			}
		}

		if listPage.Next == nil || *listPage.Next == "" {
			break
		}
	}

	e.drainMetadataPool(&wg, &jobsQueued, &jobsCompleted, report)

	if ctx.Err() != nil {
		result.Errors = errs.list()
		result.DurationMS = time.Since(start).Milliseconds()
		return result, ctx.Err()
	}

	report(drainBudgetEnd, "finalising")
	totalDocuments, err := store.CountDocuments(ctx, e.db)
	if err != nil {
		return result, fmt.Errorf("sync: count documents: %w", err)
	}
	syncState.LastSyncAt = e.clock.Now()
	syncState.LastSyncDocumentCount = result.Inserted + result.Updated
	syncState.TotalDocuments = totalDocuments
	if err := store.UpsertSyncState(ctx, e.db, syncState); err != nil {
		return result, fmt.Errorf("sync: finalise: %w", err)
	}
	report(1.0, "sync complete")

	result.Errors = errs.list()
	result.Success = true
	result.DurationMS = time.Since(start).Milliseconds()
	return result, nil
}

func (e *Engine) loadReferenceMaps(ctx context.Context) (tags, correspondents, docTypes map[int64]string, err error) {
	tags, err = e.client.Tags(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("tags: %w", err)
	}
	correspondents, err = e.client.Correspondents(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("correspondents: %w", err)
	}
	docTypes, err = e.client.DocumentTypes(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("document types: %w", err)
	}
	return tags, correspondents, docTypes, nil
}

type outcomeKind int

const (
	outcomeSkipped outcomeKind = iota
	outcomeInserted
	outcomeUpdated
)

type documentOutcome struct {
	kind       outcomeKind
	localID    int64
	upstreamID int64
}

// processDocument implements spec §4.9's per-document procedure: compute
// the fingerprint, compare against the last known one, and insert/update
// in one atomic transaction when it changed.
func (e *Engine) processDocument(
	ctx context.Context,
	upstreamID int64,
	fingerprints map[int64]string,
	tagNames, correspondentNames, docTypeNames map[int64]string,
	maxOCRLength int,
) (documentOutcome, error) {
	full, err := e.client.GetDocument(ctx, upstreamID)
	if err != nil {
		return documentOutcome{}, err
	}

	fp := fingerprint(full, resolveNames(full.Tags, tagNames), resolveOptional(full.Correspondent, correspondentNames), resolveOptional(full.DocumentType, docTypeNames))
	if existing, known := fingerprints[upstreamID]; known && existing == fp {
		return documentOutcome{kind: outcomeSkipped}, nil
	}

	content := full.Content
	if len(content) > maxOCRLength {
		content = content[:maxOCRLength]
	}
	normalized := text.Normalize(content)

	doc := model.Document{
		UpstreamID:       full.ID,
		Title:            full.Title,
		Correspondent:    resolveOptional(full.Correspondent, correspondentNames),
		DocumentType:     resolveOptional(full.DocumentType, docTypeNames),
		Tags:             resolveNames(full.Tags, tagNames),
		OriginalFileName: full.OriginalFileName,
		Created:          full.Created,
		Added:            full.Added,
		Modified:         full.Modified,
		Fingerprint:      fp,
		ProcessingStatus: model.StatusPending,
		SyncedAt:         e.clock.Now(),
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return documentOutcome{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	localID, inserted, err := store.UpsertDocument(ctx, tx, doc)
	if err != nil {
		return documentOutcome{}, err
	}
	if err := store.UpsertContent(ctx, tx, model.DocumentContent{
		DocumentID:     localID,
		FullText:       content,
		NormalizedText: normalized.Text,
		WordCount:      normalized.WordCount,
		ContentHash:    normalized.ContentHash,
	}); err != nil {
		return documentOutcome{}, err
	}
	if err := tx.Commit(); err != nil {
		return documentOutcome{}, fmt.Errorf("commit: %w", err)
	}

	fingerprints[upstreamID] = fp
	kind := outcomeUpdated
	if inserted {
		kind = outcomeInserted
	}
	return documentOutcome{kind: kind, localID: localID, upstreamID: upstreamID}, nil
}

// enqueueMetadataFetch starts one pipelined metadata fetch. A failure is
// logged and swallowed (spec §4.9: "does not fail the sync or mark the
// document failed").
func (e *Engine) enqueueMetadataFetch(ctx context.Context, sem semaphore, wg *stdsync.WaitGroup, completed *atomic.Int64, errs *errorSink, localID, upstreamID int64) {
	sem.acquire()
	go func() {
		defer wg.Done()
		defer sem.release()
		defer completed.Add(1)

		meta, err := e.client.GetDocumentMetadata(ctx, upstreamID)
		if err != nil {
			e.logger.Warn("metadata fetch failed, skipping", zap.Int64("upstream_id", upstreamID), zap.Error(err))
			errs.add(fmt.Sprintf("metadata for document %d: %v", upstreamID, err))
			return
		}
		if err := store.UpdateFileSizes(ctx, e.db, localID, meta.OriginalSize, meta.ArchiveSize); err != nil {
			e.logger.Warn("metadata patch failed, skipping", zap.Int64("upstream_id", upstreamID), zap.Error(err))
			errs.add(fmt.Sprintf("metadata patch for document %d: %v", upstreamID, err))
		}
	}()
}

// drainMetadataPool waits for every enqueued metadata fetch to finish,
// reporting progress periodically across the 20-95% budget while it does.
func (e *Engine) drainMetadataPool(wg *stdsync.WaitGroup, queued, completed *atomic.Int64, report model.ProgressFunc) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			report(drainBudgetEnd, "metadata drain complete")
			return
		case <-ticker.C:
			total := queued.Load()
			if total == 0 {
				continue
			}
			frac := iterationBudgetEnd + (drainBudgetEnd-iterationBudgetEnd)*float64(completed.Load())/float64(total)
			if frac > drainBudgetEnd {
				frac = drainBudgetEnd
			}
			report(frac, fmt.Sprintf("draining metadata (%d/%d)", completed.Load(), total))
		}
	}
}

// progressReporter normalizes a possibly-nil ProgressFunc into one that is
// always safe to call.
func progressReporter(fn model.ProgressFunc) model.ProgressFunc {
	if fn == nil {
		return func(float64, string) {}
	}
	return fn
}

// errorSink accumulates a bounded list of error messages from concurrent
// goroutines (spec §7: "a bounded list of error messages").
type errorSink struct {
	mu   stdsync.Mutex
	errs []string
}

func newErrorSink() *errorSink { return &errorSink{} }

func (s *errorSink) add(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) >= maxReportedErrors {
		return
	}
	s.errs = append(s.errs, msg)
}

func (s *errorSink) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.errs...)
}
