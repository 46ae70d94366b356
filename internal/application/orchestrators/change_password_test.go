package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"dietwithdee/internal/domain/account"
)

func TestChangePassword(t *testing.T) {
	tests := []struct {
		name    string
		current string
		next    string
		wantErr error
	}{
		{"missing fields", "", "", ErrPasswordFieldsRequired},
		{"wrong current", "not the password", "brand new passphrase", ErrCurrentPasswordWrong},
		{"same password", adminPassword, adminPassword, ErrNewPasswordSame},
		{"too short", adminPassword, "short", account.ErrPasswordTooShort},
		{"ok", adminPassword, "brand new passphrase", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededAccounts(t)
			acct := store.byEmail["dee@dietwithdee.org"]

			err := ExecuteChangePassword(context.Background(), ChangePasswordInput{
				AccountID:       acct.ID,
				CurrentPassword: tt.current,
				NewPassword:     tt.next,
			}, ChangePasswordDeps{AccountStore: store, Now: fixedClock(t0.Add(time.Hour))})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			updated := store.byEmail["dee@dietwithdee.org"]
			if updated.CheckPassword(tt.next) != nil {
				t.Error("new password does not verify")
			}
			if updated.CheckPassword(adminPassword) == nil {
				t.Error("old password still verifies")
			}
			if !updated.PasswordChangedAt.Equal(t0.Add(time.Hour)) {
				t.Errorf("PasswordChangedAt = %v", updated.PasswordChangedAt)
			}
		})
	}
}

func TestChangePassword_UnknownAccount(t *testing.T) {
	store := seededAccounts(t)
	err := ExecuteChangePassword(context.Background(), ChangePasswordInput{
		AccountID:       "missing",
		CurrentPassword: adminPassword,
		NewPassword:     "brand new passphrase",
	}, ChangePasswordDeps{AccountStore: store})
	if err == nil {
		t.Fatal("expected error for unknown account")
	}
}
