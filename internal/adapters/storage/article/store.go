package article

import (
	"context"
	"time"

	domain "dietwithdee/internal/domain/article"
)

// Store persists Article state. Implementations map a missing record to
// domain.ErrNotFound.
type Store interface {
	// Create inserts a and returns its id, generating one when a.ID is empty.
	Create(ctx context.Context, a domain.Article) (string, error)
	GetByID(ctx context.Context, id string) (domain.Article, error)
	// List returns every article, newest CreatedAt first.
	List(ctx context.Context) ([]domain.Article, error)
	// Update merges the patch into the record. CreatedAt is never written.
	Update(ctx context.Context, id string, patch Patch) error
	Delete(ctx context.Context, id string) error
}

// Patch carries the fields an update overwrites.
type Patch struct {
	Title      string
	Content    string
	CoverImage string
	UpdatedAt  time.Time
}
