package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// NoopSender logs sends but does not deliver them. Used in development and
// when no provider is configured.
type NoopSender struct {
	sent atomic.Int64
}

// NewNoopSender creates a new NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs the email and returns a synthetic message id.
// PRE: req has at least one recipient
// POST: Nothing is delivered
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 {
		return SendResult{}, ErrNoRecipients
	}
	n := s.sent.Add(1)
	slog.Info("noop_email_send", "to", req.To, "subject", req.Subject)
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", n),
		SentAt:    time.Now(),
	}, nil
}

// SendBatch logs each request.
func (s *NoopSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	return sendEach(ctx, s, reqs)
}

// Sent returns how many emails were accepted.
func (s *NoopSender) Sent() int64 {
	return s.sent.Load()
}
