package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rknightion/paperless-dedupe/internal/minhash"
	"github.com/rknightion/paperless-dedupe/internal/model"
)

// UpsertSignature writes (or replaces) a document's MinHash signature,
// tagged with the algorithm parameters that produced it (spec §3/Stage 3).
func UpsertSignature(ctx context.Context, q querier, sig model.DocumentSignature) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO document_signatures (document_id, minhash_signature, algorithm_version, num_permutations, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			minhash_signature = excluded.minhash_signature,
			algorithm_version = excluded.algorithm_version,
			num_permutations = excluded.num_permutations,
			created_at = excluded.created_at`,
		sig.DocumentID, sig.MinHashSignature, sig.AlgorithmVersion, sig.NumPermutations, formatTime(sig.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("store: upsert signature for document %d: %w", sig.DocumentID, err)
	}
	return nil
}

// Signature loads one document's signature, reporting whether one exists.
func Signature(ctx context.Context, q querier, documentID int64) (model.DocumentSignature, bool, error) {
	row := q.QueryRowContext(ctx, `
		SELECT document_id, minhash_signature, algorithm_version, num_permutations, created_at
		FROM document_signatures WHERE document_id = ?`, documentID)

	var sig model.DocumentSignature
	var created string
	if err := row.Scan(&sig.DocumentID, &sig.MinHashSignature, &sig.AlgorithmVersion, &sig.NumPermutations, &created); err != nil {
		return model.DocumentSignature{}, false, nil
	}
	sig.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return sig, true, nil
}

// SignaturesMatching loads every signature whose num_permutations equals
// the active config, deserialized, keyed by document id (spec Stage 4:
// "Load all signature rows whose num_permutations matches the config").
func SignaturesMatching(ctx context.Context, q querier, numPermutations int) (map[int64][]uint32, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT document_id, minhash_signature FROM document_signatures WHERE num_permutations = ?`, numPermutations)
	if err != nil {
		return nil, fmt.Errorf("store: load matching signatures: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]uint32)
	for rows.Next() {
		var id int64
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("store: scan signature row: %w", err)
		}
		sig, err := minhash.Deserialize(raw)
		if err != nil {
			// A corrupt stored signature is treated as absent (spec §7
			// SignatureMismatch is fatal only for the affected comparison).
			continue
		}
		out[id] = sig
	}
	return out, rows.Err()
}
