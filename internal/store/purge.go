package store

import (
	"context"
	"fmt"
)

// PurgeAll deletes every document (cascading to content, signatures, and
// group memberships) and every duplicate group (cascading to its
// remaining memberships), and resets the sync_state singleton so the next
// sync is treated as a full sync (spec §4.9 purge_before_sync).
func PurgeAll(ctx context.Context, q querier) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("store: purge documents: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM duplicate_groups`); err != nil {
		return fmt.Errorf("store: purge duplicate groups: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM sync_state`); err != nil {
		return fmt.Errorf("store: purge sync state: %w", err)
	}
	return nil
}
