package store

import (
	"context"
	"fmt"

	"github.com/rknightion/paperless-dedupe/internal/model"
)

// GroupWithMembers pairs a DuplicateGroup with the document ids in it, the
// shape Stage 8 reconciliation needs to compute each group's canonical key.
type GroupWithMembers struct {
	Group     model.DuplicateGroup
	MemberIDs []int64
}

// ExistingGroups loads every stored group and its member document ids,
// used by Stage 8 to identify which new groups match, update, or
// supersede existing ones.
func ExistingGroups(ctx context.Context, q querier) ([]GroupWithMembers, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, confidence_score, jaccard_similarity, fuzzy_text_ratio, metadata_similarity,
		       filename_similarity, algorithm_version, reviewed, resolved, created_at, updated_at
		FROM duplicate_groups`)
	if err != nil {
		return nil, fmt.Errorf("store: load existing groups: %w", err)
	}

	var groups []GroupWithMembers
	for rows.Next() {
		var g model.DuplicateGroup
		var reviewed, resolved int
		var created, updated string
		if err := rows.Scan(
			&g.ID, &g.ConfidenceScore, &g.JaccardSimilarity, &g.FuzzyTextRatio, &g.MetadataSimilarity,
			&g.FilenameSimilarity, &g.AlgorithmVersion, &reviewed, &resolved, &created, &updated,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scan group row: %w", err)
		}
		g.Reviewed = reviewed != 0
		g.Resolved = resolved != 0
		g.CreatedAt = parseRFC3339(created)
		g.UpdatedAt = parseRFC3339(updated)
		groups = append(groups, GroupWithMembers{Group: g})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		memberRows, err := q.QueryContext(ctx, `SELECT document_id FROM duplicate_group_members WHERE group_id = ?`, groups[i].Group.ID)
		if err != nil {
			return nil, fmt.Errorf("store: load members of group %s: %w", groups[i].Group.ID, err)
		}
		for memberRows.Next() {
			var docID int64
			if err := memberRows.Scan(&docID); err != nil {
				memberRows.Close()
				return nil, fmt.Errorf("store: scan member row: %w", err)
			}
			groups[i].MemberIDs = append(groups[i].MemberIDs, docID)
		}
		memberRows.Close()
		if err := memberRows.Err(); err != nil {
			return nil, err
		}
	}

	return groups, nil
}

// CreateGroup inserts a brand-new group, its members, and marks primaryID
// as the sole primary member (spec Stage 8: "create, assigning a fresh
// opaque id; ... primary as the member with the numerically smallest
// upstream_id").
func CreateGroup(ctx context.Context, q querier, group model.DuplicateGroup, memberIDs []int64, primaryID int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO duplicate_groups
			(id, confidence_score, jaccard_similarity, fuzzy_text_ratio, metadata_similarity,
			 filename_similarity, algorithm_version, reviewed, resolved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.ConfidenceScore, group.JaccardSimilarity, group.FuzzyTextRatio, group.MetadataSimilarity,
		group.FilenameSimilarity, group.AlgorithmVersion, boolToInt(group.Reviewed), boolToInt(group.Resolved),
		formatTime(group.CreatedAt), formatTime(group.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("store: create group %s: %w", group.ID, err)
	}

	for _, docID := range memberIDs {
		_, err := q.ExecContext(ctx, `
			INSERT INTO duplicate_group_members (group_id, document_id, is_primary) VALUES (?, ?, ?)`,
			group.ID, docID, boolToInt(docID == primaryID),
		)
		if err != nil {
			return fmt.Errorf("store: add member %d to group %s: %w", docID, group.ID, err)
		}
	}
	return nil
}

// UpdateGroupScores updates an existing group's scores and algorithm
// version in place, leaving Reviewed/Resolved and membership untouched
// (spec Stage 8: "preserve reviewed and resolved").
func UpdateGroupScores(ctx context.Context, q querier, groupID string, scores model.DuplicateGroup) error {
	_, err := q.ExecContext(ctx, `
		UPDATE duplicate_groups SET
			confidence_score = ?, jaccard_similarity = ?, fuzzy_text_ratio = ?, metadata_similarity = ?,
			filename_similarity = ?, algorithm_version = ?, updated_at = ?
		WHERE id = ?`,
		scores.ConfidenceScore, scores.JaccardSimilarity, scores.FuzzyTextRatio, scores.MetadataSimilarity,
		scores.FilenameSimilarity, scores.AlgorithmVersion, formatTime(scores.UpdatedAt), groupID,
	)
	if err != nil {
		return fmt.Errorf("store: update group %s: %w", groupID, err)
	}
	return nil
}

// DeleteGroup removes a group and, via cascade, its members.
func DeleteGroup(ctx context.Context, q querier, groupID string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM duplicate_groups WHERE id = ?`, groupID); err != nil {
		return fmt.Errorf("store: delete group %s: %w", groupID, err)
	}
	return nil
}

// CountGroups returns the number of duplicate groups currently stored.
func CountGroups(ctx context.Context, q querier) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM duplicate_groups`).Scan(&count); err != nil {
		return 0, fmt.Errorf("store: count groups: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
