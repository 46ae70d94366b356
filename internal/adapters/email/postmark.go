package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mrz1836/postmark"
)

// PostmarkSender sends emails via Postmark's transactional API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender creates a PostmarkSender.
// PRE: serverToken and from are non-empty
func NewPostmarkSender(serverToken, accountToken, from string) (*PostmarkSender, error) {
	if serverToken == "" {
		return nil, errors.New("postmark: server token is required")
	}
	if from == "" {
		return nil, errors.New("postmark: sender address is required")
	}
	return &PostmarkSender{
		client: postmark.NewClient(serverToken, accountToken),
		from:   from,
	}, nil
}

func (s *PostmarkSender) message(req SendRequest) postmark.Email {
	from := req.From
	if from == "" {
		from = s.from
	}
	return postmark.Email{
		From:       from,
		To:         strings.Join(req.To, ","),
		ReplyTo:    req.ReplyTo,
		Subject:    req.Subject,
		HTMLBody:   req.HTML,
		Tag:        "newsletter",
		TrackOpens: true,
	}
}

// Send sends one email through Postmark.
// POST: A non-zero Postmark ErrorCode is returned as *ProviderError
func (s *PostmarkSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 {
		return SendResult{}, ErrNoRecipients
	}
	resp, err := s.client.SendEmail(ctx, s.message(req))
	if err != nil {
		slog.Error("postmark_send_failed", "error", err, "to", req.To)
		return SendResult{}, &ProviderError{Provider: "postmark", Err: err}
	}
	if resp.ErrorCode > 0 {
		slog.Error("postmark_send_rejected", "code", resp.ErrorCode, "message", resp.Message, "to", req.To)
		return SendResult{}, &ProviderError{Provider: "postmark", StatusCode: 422, Err: fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message)}
	}
	return SendResult{MessageID: resp.MessageID, SentAt: time.Now()}, nil
}

// SendBatch sends each request through Postmark in turn.
func (s *PostmarkSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	return sendEach(ctx, s, reqs)
}
