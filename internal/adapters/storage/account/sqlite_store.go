package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dietwithdee/internal/adapters/storage"
	domain "dietwithdee/internal/domain/account"
)

const accountColumns = "id, email, password_hash, role, created_at, failed_logins, locked_until, last_login_at, password_changed_at"

// SQLiteStore keeps admin accounts in the account table.
type SQLiteStore struct {
	db storage.SQLDB
}

func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID returns the account or an error wrapping sql.ErrNoRows.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return s.lookup(ctx, "id = ?", id)
}

// GetByEmail expects an already normalized address.
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.lookup(ctx, "email = ?", email)
}

func (s *SQLiteStore) lookup(ctx context.Context, where string, arg string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE "+where, arg)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %s: %w", arg, err)
	}
	return a, err
}

// Save upserts by id.
// POST: created_at keeps its first value
func (s *SQLiteStore) Save(ctx context.Context, a domain.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email               = excluded.email,
			password_hash       = excluded.password_hash,
			role                = excluded.role,
			failed_logins       = excluded.failed_logins,
			locked_until        = excluded.locked_until,
			last_login_at       = excluded.last_login_at,
			password_changed_at = excluded.password_changed_at`,
		a.ID, a.Email, a.PasswordHash, a.Role,
		storage.FormatTime(a.CreatedAt),
		a.FailedLogins,
		optionalTime(a.LockedUntil),
		optionalTime(a.LastLoginAt),
		optionalTime(a.PasswordChangedAt),
	)
	if err != nil {
		return fmt.Errorf("save account %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&n)
	return n, err
}

// optionalTime stores the zero time as NULL.
func optionalTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: storage.FormatTime(t), Valid: true}
}

func readOptionalTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, _ := storage.ParseTime(ns.String)
	return t
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a                                  domain.Account
		created                            string
		lockedUntil, lastLogin, passwordChanged sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &created, &a.FailedLogins, &lockedUntil, &lastLogin, &passwordChanged); err != nil {
		return domain.Account{}, err
	}
	a.CreatedAt, _ = storage.ParseTime(created)
	a.LockedUntil = readOptionalTime(lockedUntil)
	a.LastLoginAt = readOptionalTime(lastLogin)
	a.PasswordChangedAt = readOptionalTime(passwordChanged)
	return a, nil
}
