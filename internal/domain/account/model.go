package account

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dietwithdee/internal/domain/subscriber"
)

// Limits for credentials and lockout.
const (
	MaxEmailLength    = 254
	MinPasswordLength = 12
	MaxFailedLogins   = 5
	LockoutDuration   = 15 * time.Minute
	bcryptCost        = 12
)

// RoleAdmin is the only role: the site owner who manages articles and
// newsletters.
const RoleAdmin = "admin"

// Domain errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email is not a valid address")
	ErrEmailTooLong     = errors.New("email cannot exceed 254 characters")
	ErrInvalidRole      = errors.New("role must be admin")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
)

// LockedError reports a locked account and when it opens again. It
// matches ErrAccountLocked under errors.Is.
type LockedError struct {
	Until time.Time
}

// ErrAccountLocked is the errors.Is target for LockedError.
var ErrAccountLocked = errors.New("account is locked due to too many failed attempts")

func (e *LockedError) Error() string {
	return fmt.Sprintf("%v until %s", ErrAccountLocked, e.Until.UTC().Format(time.RFC3339))
}

func (e *LockedError) Is(target error) bool { return target == ErrAccountLocked }

// RetryAfter is the time left on the lock at now, rounded up to a second.
func (e *LockedError) RetryAfter(now time.Time) time.Duration {
	d := e.Until.Sub(now)
	if d <= 0 {
		return 0
	}
	if r := d % time.Second; r != 0 {
		d += time.Second - r
	}
	return d
}

// Account is an admin login for the site back office.
type Account struct {
	ID                string
	Email             string
	PasswordHash      string
	Role              string
	CreatedAt         time.Time
	FailedLogins      int
	LockedUntil       time.Time
	LastLoginAt       time.Time // zero until the first sign-in
	PasswordChangedAt time.Time
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return ErrEmptyEmail
	}
	if len(a.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !subscriber.IsValidEmail(a.Email) {
		return ErrInvalidEmail
	}
	if a.Role != RoleAdmin {
		return ErrInvalidRole
	}
	return nil
}

// SetPassword hashes and stores a password with bcrypt.
// PRE: plaintext is at least MinPasswordLength characters
// POST: PasswordHash is set to a bcrypt hash; PasswordChangedAt = now
func (a *Account) SetPassword(plaintext string, now time.Time) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	a.PasswordChangedAt = now
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// dummyHash has the same cost as real hashes. Comparing against it for
// unknown emails keeps the miss as slow as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("dietwithdee-timing-pad"), bcryptCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// BurnPasswordCheck spends one bcrypt comparison on plaintext and always
// fails. Login uses it when no account matches.
func BurnPasswordCheck(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(plaintext))
}

// IsLocked reports whether the account is locked out at now.
func (a *Account) IsLocked(now time.Time) bool {
	return !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
}

// CheckLock returns a *LockedError while the account is locked.
func (a *Account) CheckLock(now time.Time) error {
	if a.IsLocked(now) {
		return &LockedError{Until: a.LockedUntil}
	}
	return nil
}

// RemainingAttempts is how many more wrong passwords lock the account.
func (a *Account) RemainingAttempts() int {
	return max(MaxFailedLogins-a.FailedLogins, 0)
}

// RecordFailedLogin counts a failed attempt and locks the account once
// MaxFailedLogins is reached.
// POST: FailedLogins incremented; LockedUntil = now+LockoutDuration at the limit
func (a *Account) RecordFailedLogin(now time.Time) {
	a.FailedLogins++
	if a.FailedLogins >= MaxFailedLogins {
		a.LockedUntil = now.Add(LockoutDuration)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
func (a *Account) ResetFailedLogins() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}

// RecordLogin marks a successful sign-in.
// POST: LastLoginAt = now; counters cleared
func (a *Account) RecordLogin(now time.Time) {
	a.ResetFailedLogins()
	a.LastLoginAt = now
}

// IsAdmin returns true if the account has admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
