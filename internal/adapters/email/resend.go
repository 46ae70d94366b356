package email

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a new ResendSender with the given API key and default from address.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
// POST: Returns a ready-to-use sender whose errors carry the HTTP status
func NewResendSender(apiKey, from string) *ResendSender {
	httpClient := &http.Client{
		Timeout:   15 * time.Second,
		Transport: &statusRecorder{},
	}
	return &ResendSender{
		client: resend.NewCustomClient(httpClient, apiKey),
		from:   from,
	}
}

func (s *ResendSender) params(req SendRequest) *resend.SendEmailRequest {
	from := req.From
	if from == "" {
		from = s.from
	}
	p := &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
	}
	if req.ReplyTo != "" {
		p.ReplyTo = req.ReplyTo
	}
	return p
}

// Send sends a single email via Resend.
// PRE: req has at least one recipient and a subject
// POST: Email is queued for delivery; failures are *ProviderError
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 {
		return SendResult{}, ErrNoRecipients
	}
	ctx, status := withStatus(ctx)

	sent, err := s.client.Emails.SendWithContext(ctx, s.params(req))
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "status", status.code, "to", req.To, "subject", req.Subject)
		return SendResult{}, &ProviderError{Provider: "resend", StatusCode: status.code, Err: err}
	}

	slog.Info("resend_sent", "message_id", sent.Id, "to", req.To, "subject", req.Subject)
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}

// resendBatchLimit is the Resend batch API ceiling per call.
const resendBatchLimit = 100

// SendBatch sends multiple emails via Resend's batch API.
// PRE: len(reqs) > 0
// POST: All emails are queued; returns results in the same order as requests
func (s *ResendSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	var all []SendResult
	for start := 0; start < len(reqs); start += resendBatchLimit {
		chunk := reqs[start:min(start+resendBatchLimit, len(reqs))]
		params := make([]*resend.SendEmailRequest, 0, len(chunk))
		for _, req := range chunk {
			params = append(params, s.params(req))
		}

		bctx, status := withStatus(ctx)
		resp, err := s.client.Batch.SendWithContext(bctx, params)
		if err != nil {
			slog.Error("resend_batch_failed", "error", err, "status", status.code, "batch_size", len(chunk))
			return all, &ProviderError{Provider: "resend", StatusCode: status.code, Err: err}
		}
		for _, item := range resp.Data {
			all = append(all, SendResult{MessageID: item.Id, SentAt: time.Now()})
		}
		slog.Info("resend_batch_sent", "count", len(chunk), "total_sent", len(all))
	}
	return all, nil
}

// statusHolder receives the last HTTP status seen for a request context.
type statusHolder struct {
	code int
}

type statusKey struct{}

func withStatus(ctx context.Context) (context.Context, *statusHolder) {
	h := &statusHolder{}
	return context.WithValue(ctx, statusKey{}, h), h
}

// statusRecorder is a RoundTripper that copies response status codes into
// the request context's statusHolder. The Resend client drops them.
type statusRecorder struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *statusRecorder) RoundTrip(r *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(r)
	if resp != nil {
		if h, ok := r.Context().Value(statusKey{}).(*statusHolder); ok {
			h.code = resp.StatusCode
		}
	}
	return resp, err
}
