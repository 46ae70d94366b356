package profilelog

import (
	"context"
	"fmt"

	"dietwithdee/internal/adapters/storage"
	domain "dietwithdee/internal/domain/profilelog"
)

// SQLiteStore implements Store on the logs table.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new profile log SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save inserts a snapshot.
// PRE: s has been validated and has an ID
func (s *SQLiteStore) Save(ctx context.Context, snap domain.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO logs (id, user_id, weight_kg, height_cm, bmi, category, daily_calories, goal, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.UserID, snap.WeightKg, snap.HeightCm, snap.BMI, snap.Category,
		snap.DailyCalories, snap.Goal, snap.Note, storage.FormatTime(snap.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert profile log: %w", err)
	}
	return nil
}

// ListByUser returns up to limit snapshots for userID, newest first.
// A non-positive limit returns all of them.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, weight_kg, height_cm, bmi, category, daily_calories, goal, note, created_at
		FROM logs WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list profile logs: %w", err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		var createdAt string
		if err := rows.Scan(&snap.ID, &snap.UserID, &snap.WeightKg, &snap.HeightCm, &snap.BMI,
			&snap.Category, &snap.DailyCalories, &snap.Goal, &snap.Note, &createdAt); err != nil {
			return nil, err
		}
		snap.CreatedAt, _ = storage.ParseTime(createdAt)
		out = append(out, snap)
	}
	return out, rows.Err()
}
