package subscriber

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"dietwithdee/internal/adapters/storage"
	domain "dietwithdee/internal/domain/subscriber"
)

// SQLiteStore implements Store using the emails table.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new subscriber SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save appends a subscriber row.
// PRE: s has been validated and normalized
// POST: A new row exists; returns its id
func (s *SQLiteStore) Save(ctx context.Context, sub domain.Subscriber) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO emails (id, email, created_at) VALUES (?, ?, ?)",
		sub.ID, sub.Email, storage.FormatTime(sub.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("insert subscriber: %w", err)
	}
	return sub.ID, nil
}

// List returns all subscriber rows.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, email, created_at FROM emails ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		var createdAt string
		if err := rows.Scan(&sub.ID, &sub.Email, &createdAt); err != nil {
			return nil, err
		}
		sub.CreatedAt, _ = storage.ParseTime(createdAt)
		out = append(out, sub)
	}
	return out, rows.Err()
}

// Count returns the number of subscriber rows, duplicates included.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM emails").Scan(&n)
	return n, err
}
