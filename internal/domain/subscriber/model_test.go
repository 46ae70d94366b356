package subscriber_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"dietwithdee/internal/domain/subscriber"
)

// TestIsValidEmail covers the localpart@domain.tld shape.
func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@b.co", true},
		{"dee@dietwithdee.com", true},
		{"first.last+tag@mail.example.org", true},
		{"", false},
		{"plain", false},
		{"a@b", false},
		{"@b.co", false},
		{"a@.co", false},
		{"a b@c.co", false},
		{"a@b c.co", false},
		{"a@@b.co", false},
		{"a@b.", false},
		{" a@b.co", false},
		{"a\u00a0b@x.com", false},
		{"a\vb@x.com", false},
		{"a@x.\u2003com", false},
		{"\ufeffa@x.com", false},
		{"a@x\u2028.com", false},
		{"a@x.com\u3000", false},
		{"jos\u00e9@caf\u00e9.fr", true},
	}
	for _, tt := range tests {
		if got := subscriber.IsValidEmail(tt.in); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestNormalize verifies trimming and lowercasing.
func TestNormalize(t *testing.T) {
	if got := subscriber.Normalize("  Dee@Example.COM \n"); got != "dee@example.com" {
		t.Errorf("Normalize = %q, want %q", got, "dee@example.com")
	}
}

// TestSubscriberValidation tests validation of Subscriber.
func TestSubscriberValidation(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		sub     subscriber.Subscriber
		wantErr error
	}{
		{"valid", subscriber.Subscriber{ID: "1", Email: "a@b.co", CreatedAt: now}, nil},
		{"empty email", subscriber.Subscriber{ID: "1", Email: "  ", CreatedAt: now}, subscriber.ErrEmptyEmail},
		{"invalid email", subscriber.Subscriber{ID: "1", Email: "nope", CreatedAt: now}, subscriber.ErrInvalidEmail},
		{"too long", subscriber.Subscriber{ID: "1", Email: strings.Repeat("a", 250) + "@b.co", CreatedAt: now}, subscriber.ErrEmailTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sub.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	missingTime := subscriber.Subscriber{ID: "1", Email: "a@b.co"}
	if err := missingTime.Validate(); err == nil {
		t.Error("expected error for zero CreatedAt")
	}
}

// TestUniqueEmails verifies case-insensitive, trim-based deduplication.
func TestUniqueEmails(t *testing.T) {
	subs := []subscriber.Subscriber{
		{Email: "A@x.com"},
		{Email: "a@x.com"},
		{Email: " a@x.com "},
		{Email: "not-an-email"},
		{Email: "b@y.org"},
		{Email: ""},
	}
	got := subscriber.UniqueEmails(subs)
	want := []string{"a@x.com", "b@y.org"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueEmails = %v, want %v", got, want)
	}
}

// TestUniqueEmails_Empty returns an empty, non-nil slice.
func TestUniqueEmails_Empty(t *testing.T) {
	got := subscriber.UniqueEmails(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("UniqueEmails(nil) = %#v, want empty slice", got)
	}
}
