package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrQuotaExceeded = errors.New("storage quota exceeded")

const (
	getValueQuery = `SELECT value FROM kv WHERE key = ?`

	usedBytesQuery = `SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0) FROM kv WHERE key <> ?`

	setValueQuery = `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	deleteValueQuery = `DELETE FROM kv WHERE key = ?`
)

// KV is a string key-value store with a total size budget across all keys.
// A zero quota means unlimited.
type KV struct {
	db    *sqlx.DB
	quota int64
}

func NewKV(db *sqlx.DB, quota int64) *KV {
	return &KV{db: db, quota: quota}
}

func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := kv.db.GetContext(ctx, &value, getValueQuery, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (kv *KV) Set(ctx context.Context, key, value string) error {
	if kv.quota > 0 {
		var used int64
		if err := kv.db.GetContext(ctx, &used, usedBytesQuery, key); err != nil {
			return fmt.Errorf("measure storage: %w", err)
		}
		if used+int64(len(key)+len(value)) > kv.quota {
			return fmt.Errorf("set %q (%d bytes): %w", key, len(value), ErrQuotaExceeded)
		}
	}

	if _, err := kv.db.ExecContext(ctx, setValueQuery, key, value); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (kv *KV) Delete(ctx context.Context, key string) error {
	if _, err := kv.db.ExecContext(ctx, deleteValueQuery, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
