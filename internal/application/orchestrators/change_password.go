package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dietwithdee/internal/domain/account"
)

// ChangePasswordInput carries the admin's current and new password.
type ChangePasswordInput struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
}

// AccountStoreForChangePassword defines the store interface needed by ChangePassword.
type AccountStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	AccountStore AccountStoreForChangePassword
	Now          func() time.Time
}

var (
	ErrPasswordFieldsRequired = errors.New("current and new password are required")
	ErrCurrentPasswordWrong   = errors.New("current password is incorrect")
	ErrNewPasswordSame        = errors.New("new password must be different from current password")
)

// ExecuteChangePassword rotates the signed-in admin's password.
// PRE: AccountID names an existing account
// POST: PasswordHash matches NewPassword; PasswordChangedAt is stamped;
// failed-login counters are reset
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return ErrPasswordFieldsRequired
	}
	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return fmt.Errorf("load account %s: %w", input.AccountID, err)
	}
	if err := acct.CheckPassword(input.CurrentPassword); err != nil {
		return ErrCurrentPasswordWrong
	}
	if input.CurrentPassword == input.NewPassword {
		return ErrNewPasswordSame
	}
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	if err := acct.SetPassword(input.NewPassword, now); err != nil {
		return err
	}
	acct.ResetFailedLogins()
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return fmt.Errorf("save account: %w", err)
	}

	slog.Info("auth_event", "event", "password_changed", "account_id", acct.ID)
	return nil
}
