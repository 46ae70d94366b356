package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dietwithdee/internal/domain/account"
	"dietwithdee/internal/domain/subscriber"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

type LoginInput struct {
	Email    string
	Password string
}

// LoginResult identifies the admin for the new session. PreviousLoginAt
// is zero on the first sign-in.
type LoginResult struct {
	AccountID       string
	Email           string
	Role            string
	PreviousLoginAt time.Time
}

type LoginDeps struct {
	AccountStore AccountStoreForLogin
	Now          func() time.Time
}

// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrAccountLocked matches the *account.LockedError ExecuteLogin returns.
var ErrAccountLocked = account.ErrAccountLocked

// ExecuteLogin checks admin credentials.
// PRE: none; empty input is rejected as invalid credentials
// POST: success stamps LastLoginAt and clears the lockout counters; a wrong
// password counts toward MaxFailedLogins
// INVARIANT: a locked account is refused before its password is checked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	email := subscriber.Normalize(input.Email)
	log := slog.With("email", email)

	acct, err := deps.AccountStore.GetByEmail(ctx, email)
	if err != nil {
		account.BurnPasswordCheck(input.Password)
		log.Info("auth_event", "event", "login_failed", "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := acct.CheckLock(now); err != nil {
		log.Info("auth_event", "event", "login_blocked", "locked_until", acct.LockedUntil)
		return LoginResult{}, err
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		saveAccount(ctx, deps.AccountStore, acct)
		log.Info("auth_event", "event", "login_failed", "reason", "wrong_password", "remaining_attempts", acct.RemainingAttempts())
		return LoginResult{}, ErrInvalidCredentials
	}

	res := LoginResult{AccountID: acct.ID, Email: acct.Email, Role: acct.Role, PreviousLoginAt: acct.LastLoginAt}
	acct.RecordLogin(now)
	saveAccount(ctx, deps.AccountStore, acct)
	log.Info("auth_event", "event", "login_success", "role", acct.Role)
	return res, nil
}

// saveAccount persists login bookkeeping. A failed write is logged and
// does not change the login outcome.
func saveAccount(ctx context.Context, store AccountStoreForLogin, acct account.Account) {
	if err := store.Save(ctx, acct); err != nil {
		slog.Error("auth_event_save_failed", "account_id", acct.ID, "error", err)
	}
}
