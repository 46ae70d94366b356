package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dietwithdee/internal/domain/account"
	"dietwithdee/internal/domain/subscriber"
)

// AccountStoreForSeed defines the store interface needed by SeedAdmin.
type AccountStoreForSeed interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// SeedAdminInput carries the configured admin credentials.
type SeedAdminInput struct {
	Email    string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	AccountStore AccountStoreForSeed
	Now          func() time.Time
}

// ExecuteSeedAdmin ensures the configured admin account exists. An existing
// account keeps its password.
// PRE: Valid email, password >= 12 chars
// POST: Returns true when a new account was created
// INVARIANT: at most one account per email
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) (bool, error) {
	email := subscriber.Normalize(input.Email)
	if _, err := deps.AccountStore.GetByEmail(ctx, email); err == nil {
		slog.Debug("admin_seed_skipped", "email", email)
		return false, nil
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	acct := account.Account{
		ID:        uuid.New().String(),
		Email:     email,
		Role:      account.RoleAdmin,
		CreatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return false, err
	}
	if err := acct.SetPassword(input.Password, now); err != nil {
		return false, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return false, err
	}

	slog.Info("admin_seeded", "account_id", acct.ID, "email", email)
	return true, nil
}
