package audit

import (
	"context"

	domain "dietwithdee/internal/domain/audit"
)

// Store persists the admin activity log.
type Store interface {
	// Save persists an event.
	// PRE: event is valid and has an ID
	Save(ctx context.Context, event domain.Event) error

	// List returns up to limit events, newest first, optionally restricted
	// to one action.
	// PRE: limit > 0
	List(ctx context.Context, action domain.Action, limit int) ([]domain.Event, error)
}

var _ Store = (*SQLiteStore)(nil)
