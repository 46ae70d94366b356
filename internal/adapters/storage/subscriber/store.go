package subscriber

import (
	"context"

	domain "dietwithdee/internal/domain/subscriber"
)

// Store persists newsletter subscribers. Save is append-only: duplicate
// addresses are stored as separate records.
type Store interface {
	Save(ctx context.Context, s domain.Subscriber) (string, error)
	// List returns every record, newest first.
	List(ctx context.Context) ([]domain.Subscriber, error)
	Count(ctx context.Context) (int, error)
}
