package marker

import (
	"context"
	"fmt"
	"time"

	"dietwithdee/internal/adapters/storage"
)

// SQLiteStore implements Store on the kv_markers table.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a marker store backed by db.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Has reports whether key has been set.
func (s *SQLiteStore) Has(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_markers WHERE key = ?", key).Scan(&n); err != nil {
		return false, fmt.Errorf("read marker %s: %w", key, err)
	}
	return n > 0, nil
}

// Set writes key, overwriting any previous value.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv_markers (key, value, created_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value",
		key, value, storage.FormatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("write marker %s: %w", key, err)
	}
	return nil
}
