package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dietwithdee/internal/adapters/email"
	"dietwithdee/internal/adapters/metrics"
	"dietwithdee/internal/domain/consultation"
	"dietwithdee/internal/domain/subscriber"
)

// ComposeConsultationInput is the contact form plus an optional calculator
// run to attach.
type ComposeConsultationInput struct {
	Form       consultation.ContactForm
	Calculator *consultation.CalculatorInput
}

// ComposeConsultationResult carries the composed message and every delivery
// payload. Nothing is sent server-side.
type ComposeConsultationResult struct {
	Message   consultation.Message
	Metrics   *consultation.HealthMetrics
	Mailto    string
	Gmail     string
	Clipboard string
}

// ExecuteComposeConsultation validates the form and builds the consultation
// email addressed to the practice.
// PRE: to is the practice's inbox
// POST: Deterministic for equal inputs
func ExecuteComposeConsultation(to string, input ComposeConsultationInput) (ComposeConsultationResult, error) {
	if err := input.Form.Validate(); err != nil {
		return ComposeConsultationResult{}, err
	}
	var hm *consultation.HealthMetrics
	if input.Calculator != nil {
		m, err := consultation.Calculate(*input.Calculator)
		if err != nil {
			return ComposeConsultationResult{}, err
		}
		hm = &m
	}
	msg := consultation.Compose(to, input.Form, hm)
	return ComposeConsultationResult{
		Message:   msg,
		Metrics:   hm,
		Mailto:    consultation.MailtoURL(msg),
		Gmail:     consultation.GmailComposeURL(msg),
		Clipboard: consultation.ClipboardText(msg),
	}, nil
}

// Proxy validation errors.
var (
	ErrProxyMissingFields = errors.New("missing required fields: to, subject, html")
	ErrProxyInvalidEmail  = errors.New("invalid email address")
)

// ProxySendInput is the edge proxy request body.
type ProxySendInput struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// ProxySendDeps holds dependencies for the email proxy.
type ProxySendDeps struct {
	Sender  email.Sender
	From    string
	ReplyTo string
	Timeout time.Duration
}

// ExecuteProxySend relays one email through the transactional provider.
// PRE: to, subject and html are non-empty and to looks like an address
// POST: Provider failures are returned as *email.ProviderError when the provider answered
func ExecuteProxySend(ctx context.Context, input ProxySendInput, deps ProxySendDeps) (email.SendResult, error) {
	if strings.TrimSpace(input.To) == "" || strings.TrimSpace(input.Subject) == "" || input.HTML == "" {
		return email.SendResult{}, ErrProxyMissingFields
	}
	to := strings.TrimSpace(input.To)
	if !subscriber.IsValidEmail(to) {
		return email.SendResult{}, ErrProxyInvalidEmail
	}
	if deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deps.Timeout)
		defer cancel()
	}

	res, err := deps.Sender.Send(ctx, email.SendRequest{
		To:      []string{to},
		From:    deps.From,
		ReplyTo: deps.ReplyTo,
		Subject: input.Subject,
		HTML:    input.HTML,
	})
	metrics.IncEmailProxy(err == nil)
	if err != nil {
		slog.Error("email_proxy_send_failed", "status", email.StatusCode(err), "error", err)
		return email.SendResult{}, fmt.Errorf("send email: %w", err)
	}
	slog.Info("email_proxy_sent", "message_id", res.MessageID)
	return res, nil
}
