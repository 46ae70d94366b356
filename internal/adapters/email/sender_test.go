package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestProviderError(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", &ProviderError{Provider: "resend", StatusCode: 429, Err: base})

	if StatusCode(err) != 429 {
		t.Errorf("StatusCode = %d", StatusCode(err))
	}
	if !errors.Is(err, base) {
		t.Error("ProviderError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "status 429") {
		t.Errorf("message = %q", err.Error())
	}
	if StatusCode(base) != 0 {
		t.Error("plain error should have no status")
	}
}

func TestNoopSender(t *testing.T) {
	s := NewNoopSender()
	ctx := context.Background()

	res, err := s.Send(ctx, SendRequest{To: []string{"a@x.io"}, Subject: "s"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.MessageID == "" {
		t.Error("expected a synthetic message id")
	}
	results, err := s.SendBatch(ctx, []SendRequest{{To: []string{"b@x.io"}}, {To: []string{"c@x.io"}}})
	if err != nil || len(results) != 2 {
		t.Fatalf("SendBatch = %d, %v", len(results), err)
	}
	if s.Sent() != 3 {
		t.Errorf("Sent = %d, want 3", s.Sent())
	}
	if _, err := s.Send(ctx, SendRequest{}); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("err = %v", err)
	}
}

func TestPostmarkSender_Validation(t *testing.T) {
	if _, err := NewPostmarkSender("", "", "a@x.io"); err == nil {
		t.Error("expected error for missing token")
	}
	if _, err := NewPostmarkSender("tok", "", ""); err == nil {
		t.Error("expected error for missing sender")
	}
	s, err := NewPostmarkSender("tok", "", "hello@dietwithdee.org")
	if err != nil {
		t.Fatalf("NewPostmarkSender: %v", err)
	}
	msg := s.message(SendRequest{To: []string{"a@x.io", "b@x.io"}, Subject: "s"})
	if msg.To != "a@x.io,b@x.io" || msg.From != "hello@dietwithdee.org" {
		t.Errorf("message = %+v", msg)
	}
}
