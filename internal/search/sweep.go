package search

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SweepCache deletes unified-search cache rows older than olderThan.
// Run periodically; nothing reads a stale row, this just keeps the
// kv table from accreting dead queries.
func SweepCache(ctx context.Context, db *sql.DB, olderThan time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM kv_store
		WHERE key LIKE 'unified_search:%' AND updated_at < ?
	`, time.Now().Add(-olderThan).UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep search cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
