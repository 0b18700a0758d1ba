package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rknightion/paperless-dedupe/internal/fuzzy"
	"github.com/rknightion/paperless-dedupe/internal/model"
)

// UpsertContent writes a document's derived content in the same atomic
// unit as its owning Document row (spec §3). document_content has no
// independent lifecycle: callers insert or replace the whole row.
func UpsertContent(ctx context.Context, q querier, c model.DocumentContent) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO document_content (document_id, full_text, normalized_text, word_count, content_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			full_text = excluded.full_text,
			normalized_text = excluded.normalized_text,
			word_count = excluded.word_count,
			content_hash = excluded.content_hash`,
		c.DocumentID, c.FullText, c.NormalizedText, c.WordCount, c.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("store: upsert content for document %d: %w", c.DocumentID, err)
	}
	return nil
}

// NormalizedTextByID loads the normalized_text of each requested document,
// chunked to respect bind-variable limits. Documents with no content row
// are simply absent from the result.
func NormalizedTextByID(ctx context.Context, q querier, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	for _, chunk := range chunkInt64(ids) {
		query := fmt.Sprintf(`SELECT document_id, normalized_text FROM document_content WHERE document_id IN (%s)`, int64Placeholders(len(chunk)))
		rows, err := q.QueryContext(ctx, query, int64ArgsToAny(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("store: load normalized text: %w", err)
		}
		for rows.Next() {
			var id int64
			var text string
			if err := rows.Scan(&id, &text); err != nil {
				rows.Close()
				return nil, fmt.Errorf("store: scan normalized text row: %w", err)
			}
			out[id] = text
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

// ScoringPayloads batch-loads the document + metadata fields needed for
// pair scoring (spec §4.6, Stage 6), joining documents and document_content
// in chunks. When sampleChars > 0 the normalized text is additionally
// fetched and reduced through fuzzy.Sample, matching Stage 6's rule that
// sampled text is only loaded "if the fuzzy weight is positive".
func ScoringPayloads(ctx context.Context, q querier, ids []int64, sampleChars int) (map[int64]model.ScoringPayload, error) {
	out := make(map[int64]model.ScoringPayload, len(ids))
	for _, chunk := range chunkInt64(ids) {
		placeholders := int64Placeholders(len(chunk))
		query := fmt.Sprintf(`
			SELECT d.id, d.upstream_id, d.title, d.correspondent, d.document_type,
			       d.original_file_name, d.original_file_size, d.archive_file_size, d.created_at,
			       COALESCE(c.normalized_text, '')
			FROM documents d
			LEFT JOIN document_content c ON c.document_id = d.id
			WHERE d.id IN (%s)`, placeholders)

		rows, err := q.QueryContext(ctx, query, int64ArgsToAny(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("store: load scoring payloads: %w", err)
		}
		for rows.Next() {
			var p model.ScoringPayload
			var created sql.NullString
			var normalizedText string
			if err := rows.Scan(
				&p.DocumentID, &p.UpstreamID, &p.Title, &p.Correspondent, &p.DocumentType,
				&p.OriginalFileName, &p.OriginalFileSize, &p.ArchiveFileSize, &created, &normalizedText,
			); err != nil {
				rows.Close()
				return nil, fmt.Errorf("store: scan scoring payload row: %w", err)
			}
			p.Created = parseTime(created)
			if sampleChars > 0 {
				p.SampledText = fuzzy.Sample(strings.TrimSpace(normalizedText), sampleChars)
			}
			out[p.DocumentID] = p
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}
