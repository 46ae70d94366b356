package audit

import (
	"context"
	"fmt"

	"dietwithdee/internal/adapters/storage"
	domain "dietwithdee/internal/domain/audit"
)

// SQLiteStore implements Store on the audit_log table.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save inserts an event.
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, at, action, actor_id, actor_email, resource_id, detail, ip)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, storage.FormatTime(e.At), string(e.Action), e.ActorID, e.ActorEmail, e.ResourceID, e.Detail, e.IP,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// List returns events newest first. An empty action matches all.
func (s *SQLiteStore) List(ctx context.Context, action domain.Action, limit int) ([]domain.Event, error) {
	query := `SELECT id, at, action, actor_id, actor_email, resource_id, detail, ip FROM audit_log`
	args := []any{}
	if action != "" {
		query += ` WHERE action = ?`
		args = append(args, string(action))
	}
	query += ` ORDER BY at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		var at string
		if err := rows.Scan(&e.ID, &at, &e.Action, &e.ActorID, &e.ActorEmail, &e.ResourceID, &e.Detail, &e.IP); err != nil {
			return nil, err
		}
		e.At, _ = storage.ParseTime(at)
		out = append(out, e)
	}
	return out, rows.Err()
}
