package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SeedDev pre-creates empty collection documents so a fresh dev database
// behaves like one that has been written to at least once. Existing
// documents are left untouched.
func SeedDev(ctx context.Context, db *sql.DB, keys []string) error {
	now := time.Now().UTC().UnixMilli()

	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO documents(key, value, updated_at_ms)
VALUES (?, '[]', ?);`, key, now); err != nil {
			return fmt.Errorf("seed document %s: %w", key, err)
		}
	}

	return nil
}
