package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rknightion/paperless-dedupe/internal/model"
)

// DocumentSummary is the slim projection Stage 2 of the analysis
// orchestrator enumerates: "(id, upstream_id, processing_status)" per
// spec §4.8, without paying for the full Document row.
type DocumentSummary struct {
	ID               int64
	UpstreamID       int64
	ProcessingStatus model.ProcessingStatus
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	return parseRFC3339(s.String)
}

func parseRFC3339(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpsertDocument inserts a new document row keyed by UpstreamID, or updates
// the existing one in place if the upstream id is already known (spec §3:
// "inserted on first sync seeing the upstream id; updated when fingerprint
// differs"). Returns the local id and whether a row was newly inserted.
func UpsertDocument(ctx context.Context, q querier, doc model.Document) (id int64, inserted bool, err error) {
	tags, err := json.Marshal(doc.Tags)
	if err != nil {
		return 0, false, fmt.Errorf("store: marshal tags: %w", err)
	}

	var existingID int64
	err = q.QueryRowContext(ctx, `SELECT id FROM documents WHERE upstream_id = ?`, doc.UpstreamID).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		res, execErr := q.ExecContext(ctx, `
			INSERT INTO documents
				(upstream_id, title, correspondent, document_type, tags, original_file_name,
				 created_at, added_at, modified_at, original_file_size, archive_file_size,
				 fingerprint, processing_status, synced_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.UpstreamID, doc.Title, doc.Correspondent, doc.DocumentType, string(tags), doc.OriginalFileName,
			formatTime(doc.Created), formatTime(doc.Added), formatTime(doc.Modified),
			doc.OriginalFileSize, doc.ArchiveFileSize, doc.Fingerprint, string(doc.ProcessingStatus), formatTime(doc.SyncedAt),
		)
		if execErr != nil {
			return 0, false, fmt.Errorf("store: insert document: %w", execErr)
		}
		newID, _ := res.LastInsertId()
		return newID, true, nil
	case err != nil:
		return 0, false, fmt.Errorf("store: lookup document by upstream_id: %w", err)
	}

	_, execErr := q.ExecContext(ctx, `
		UPDATE documents SET
			title = ?, correspondent = ?, document_type = ?, tags = ?, original_file_name = ?,
			created_at = ?, added_at = ?, modified_at = ?, original_file_size = ?, archive_file_size = ?,
			fingerprint = ?, processing_status = ?, synced_at = ?
		WHERE id = ?`,
		doc.Title, doc.Correspondent, doc.DocumentType, string(tags), doc.OriginalFileName,
		formatTime(doc.Created), formatTime(doc.Added), formatTime(doc.Modified),
		doc.OriginalFileSize, doc.ArchiveFileSize, doc.Fingerprint, string(doc.ProcessingStatus), formatTime(doc.SyncedAt),
		existingID,
	)
	if execErr != nil {
		return 0, false, fmt.Errorf("store: update document: %w", execErr)
	}
	return existingID, false, nil
}

// Fingerprints returns the current fingerprint of every known document,
// keyed by upstream id, so the sync engine can detect unchanged documents
// without refetching their full bodies.
func Fingerprints(ctx context.Context, q querier) (map[int64]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT upstream_id, fingerprint FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("store: load fingerprints: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var upstreamID int64
		var fp string
		if err := rows.Scan(&upstreamID, &fp); err != nil {
			return nil, fmt.Errorf("store: scan fingerprint row: %w", err)
		}
		out[upstreamID] = fp
	}
	return out, rows.Err()
}

// DocumentsForAnalysis returns every document's slim summary (spec Stage 2).
func DocumentsForAnalysis(ctx context.Context, q querier) ([]DocumentSummary, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, upstream_id, processing_status FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("store: load documents for analysis: %w", err)
	}
	defer rows.Close()

	var out []DocumentSummary
	for rows.Next() {
		var s DocumentSummary
		var status string
		if err := rows.Scan(&s.ID, &s.UpstreamID, &status); err != nil {
			return nil, fmt.Errorf("store: scan document summary: %w", err)
		}
		s.ProcessingStatus = model.ProcessingStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkCompleted sets processing_status = completed for the given document
// ids, chunked to respect bind-variable limits.
func MarkCompleted(ctx context.Context, q querier, ids []int64) error {
	for _, chunk := range chunkInt64(ids) {
		query := fmt.Sprintf(`UPDATE documents SET processing_status = 'completed' WHERE id IN (%s)`, int64Placeholders(len(chunk)))
		if _, err := q.ExecContext(ctx, query, int64ArgsToAny(chunk)...); err != nil {
			return fmt.Errorf("store: mark completed: %w", err)
		}
	}
	return nil
}

// GetDocument loads one document's full row by local id.
func GetDocument(ctx context.Context, q querier, id int64) (model.Document, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, upstream_id, title, correspondent, document_type, tags, original_file_name,
		       created_at, added_at, modified_at, original_file_size, archive_file_size,
		       fingerprint, processing_status, synced_at
		FROM documents WHERE id = ?`, id)

	var doc model.Document
	var tags string
	var status string
	var created, added, modified, synced sql.NullString

	if err := row.Scan(
		&doc.ID, &doc.UpstreamID, &doc.Title, &doc.Correspondent, &doc.DocumentType, &tags, &doc.OriginalFileName,
		&created, &added, &modified, &doc.OriginalFileSize, &doc.ArchiveFileSize,
		&doc.Fingerprint, &status, &synced,
	); err != nil {
		return model.Document{}, fmt.Errorf("store: get document %d: %w", id, err)
	}

	_ = json.Unmarshal([]byte(tags), &doc.Tags)
	doc.ProcessingStatus = model.ProcessingStatus(status)
	doc.Created = parseTime(created)
	doc.Added = parseTime(added)
	doc.Modified = parseTime(modified)
	doc.SyncedAt = parseTime(synced)
	return doc, nil
}

// UpdateFileSizes patches the two file-size columns on an already-persisted
// document row. This is the only effect of the sync engine's pipelined
// metadata fetch (spec §4.9): it never touches fingerprint, content, or
// processing_status.
func UpdateFileSizes(ctx context.Context, q querier, documentID, originalSize, archiveSize int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE documents SET original_file_size = ?, archive_file_size = ? WHERE id = ?`,
		originalSize, archiveSize, documentID,
	)
	if err != nil {
		return fmt.Errorf("store: update file sizes for document %d: %w", documentID, err)
	}
	return nil
}

// DeleteDocument removes a document and, via cascade, its content,
// signature, and group memberships (spec §3 ownership).
func DeleteDocument(ctx context.Context, q querier, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete document %d: %w", id, err)
	}
	return nil
}

// DeleteDocumentByUpstreamID removes a document identified by its upstream
// id. The sync engine does not call it; its purge path uses PurgeAll.
func DeleteDocumentByUpstreamID(ctx context.Context, q querier, upstreamID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM documents WHERE upstream_id = ?`, upstreamID); err != nil {
		return fmt.Errorf("store: delete document by upstream_id %d: %w", upstreamID, err)
	}
	return nil
}

// CountDocuments returns the total number of documents currently stored.
func CountDocuments(ctx context.Context, q querier) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("store: count documents: %w", err)
	}
	return count, nil
}
