package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rknightion/paperless-dedupe/internal/model"
)

// SyncStateRow loads the singleton sync state row, returning the zero
// value if sync has never run.
func SyncStateRow(ctx context.Context, q querier) (model.SyncState, error) {
	row := q.QueryRowContext(ctx, `
		SELECT last_sync_at, last_analysis_at, last_sync_document_count, total_documents, total_duplicate_groups
		FROM sync_state WHERE id = 1`)

	var state model.SyncState
	var lastSync, lastAnalysis sql.NullString
	if err := row.Scan(&lastSync, &lastAnalysis, &state.LastSyncDocumentCount, &state.TotalDocuments, &state.TotalDuplicateGroups); err != nil {
		if err == sql.ErrNoRows {
			return model.SyncState{}, nil
		}
		return model.SyncState{}, fmt.Errorf("store: load sync state: %w", err)
	}
	state.LastSyncAt = parseTime(lastSync)
	state.LastAnalysisAt = parseTime(lastAnalysis)
	return state, nil
}

// UpsertSyncState writes the singleton sync_state row. Fields left at their
// zero value overwrite what was stored -- callers are expected to read the
// current state first (via SyncStateRow) and mutate only what changed.
func UpsertSyncState(ctx context.Context, q querier, state model.SyncState) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO sync_state (id, last_sync_at, last_analysis_at, last_sync_document_count, total_documents, total_duplicate_groups)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_sync_at = excluded.last_sync_at,
			last_analysis_at = excluded.last_analysis_at,
			last_sync_document_count = excluded.last_sync_document_count,
			total_documents = excluded.total_documents,
			total_duplicate_groups = excluded.total_duplicate_groups`,
		formatTime(state.LastSyncAt), formatTime(state.LastAnalysisAt),
		state.LastSyncDocumentCount, state.TotalDocuments, state.TotalDuplicateGroups,
	)
	if err != nil {
		return fmt.Errorf("store: upsert sync state: %w", err)
	}
	return nil
}
