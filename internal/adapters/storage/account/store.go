package account

import (
	"context"

	domain "dietwithdee/internal/domain/account"
)

// Store persists admin accounts. Lookups that miss return domain-free
// errors wrapping sql.ErrNoRows.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Count(ctx context.Context) (int, error)
}
