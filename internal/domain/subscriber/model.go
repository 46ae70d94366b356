package subscriber

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
)

// Domain errors
var (
	ErrEmptyEmail   = errors.New("email cannot be empty")
	ErrInvalidEmail = errors.New("please enter a valid email address")
	ErrEmailTooLong = errors.New("email cannot exceed 254 characters")
)

// emailPattern accepts localpart@domain.tld where each part is a run of
// characters that are neither whitespace nor '@'. No DNS or mailbox checks.
// Whitespace here is the browser's set: RE2 \s plus \v, every Unicode
// separator and the BOM.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

// Subscriber is one newsletter signup. Records are append-only: the same
// address may appear more than once and is only deduplicated at send time.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsValidEmail reports whether s looks like localpart@domain.tld.
// INVARIANT: s is not modified
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Normalize trims surrounding whitespace and lowercases the address.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks that the Subscriber has valid data.
// PRE: Subscriber struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Subscriber) Validate() error {
	if strings.TrimSpace(s.Email) == "" {
		return ErrEmptyEmail
	}
	if len(s.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !IsValidEmail(s.Email) {
		return ErrInvalidEmail
	}
	if s.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// UniqueEmails normalizes, validates and deduplicates the subscribers'
// addresses. Order follows first appearance. Invalid addresses are dropped.
// POST: no two returned addresses are equal; every address passes IsValidEmail
func UniqueEmails(subs []Subscriber) []string {
	seen := make(map[string]struct{}, len(subs))
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		email := Normalize(s.Email)
		if email == "" || !IsValidEmail(email) {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}
