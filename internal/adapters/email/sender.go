package email

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SendRequest contains the data needed to send an email via an external provider.
type SendRequest struct {
	To       []string // Recipient email addresses
	From     string   // Sender address (e.g. "Diet With Dee <hello@dietwithdee.org>")
	FromName string   // Display name for providers that take it separately
	Subject  string
	HTML     string // HTML body
	ReplyTo  string
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string    // Provider's message ID for tracking
	SentAt    time.Time // When the send was accepted
}

// Sender is the interface for sending emails via an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
	SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error)
}

// ErrNoRecipients is returned when a request has no To address.
var ErrNoRecipients = errors.New("email request has no recipients")

// ProviderError is a rejected send with the provider's HTTP status, when
// one was received.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

// Error implements error.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s send failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s send failed: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error { return e.Err }

// StatusCode extracts the provider HTTP status from err, or 0.
func StatusCode(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}

// sendEach sends reqs one at a time, stopping at the first failure.
func sendEach(ctx context.Context, s Sender, reqs []SendRequest) ([]SendResult, error) {
	results := make([]SendResult, 0, len(reqs))
	for _, req := range reqs {
		res, err := s.Send(ctx, req)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
