package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/RaFeltrim/sigeco-condo-access-sub002/internal/db"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store"
)

// KV is the file-backed persistence substrate: one documents row per
// collection key. All writes funnel through the single-writer worker so
// SQLite never sees concurrent write transactions.
type KV struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func New(db *sql.DB, writer *dbpkg.Worker) *KV {
	return &KV{db: db, writer: writer}
}

func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM documents WHERE key = ?;`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &store.StorageError{Kind: store.KindUnknown, Op: "get " + key, Err: err}
	}
	return value, true, nil
}

func (s *KV) Set(ctx context.Context, key, value string) error {
	nowMs := time.Now().UTC().UnixMilli()

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO documents(key, value, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  value = excluded.value,
  updated_at_ms = excluded.updated_at_ms;
`, key, value, nowMs); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return classify("set "+key, err)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE key = ?;`, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return classify("delete "+key, err)
	}
	return nil
}

// classify maps SQLite failures onto storage kinds. Disk exhaustion is the
// only case worth distinguishing; everything else is unknown.
func classify(op string, err error) *store.StorageError {
	kind := store.KindUnknown
	if msg := err.Error(); strings.Contains(msg, "database or disk is full") {
		kind = store.KindQuotaExceeded
	}
	return &store.StorageError{Kind: kind, Op: op, Err: err}
}
