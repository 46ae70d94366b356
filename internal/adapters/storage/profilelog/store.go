package profilelog

import (
	"context"

	domain "dietwithdee/internal/domain/profilelog"
)

// Store persists the per-user profile history.
type Store interface {
	Save(ctx context.Context, s domain.Snapshot) error
	// ListByUser returns a user's snapshots, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Snapshot, error)
}
