package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultEmailJSEndpoint is the public EmailJS send API.
const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSConfig identifies the EmailJS service and template.
type EmailJSConfig struct {
	ServiceID  string
	TemplateID string
	UserID     string
	Endpoint   string
	FromName   string
	FromEmail  string
	ReplyTo    string
}

// EmailJSSender delivers through an EmailJS template. The rendered HTML is
// passed under both message_html and html_content so either placeholder
// name in the template works.
type EmailJSSender struct {
	cfg  EmailJSConfig
	http *http.Client
}

// NewEmailJSSender creates an EmailJSSender.
// PRE: cfg has service, template and user ids
func NewEmailJSSender(cfg EmailJSConfig) (*EmailJSSender, error) {
	if cfg.ServiceID == "" || cfg.TemplateID == "" || cfg.UserID == "" {
		return nil, errors.New("emailjs: service id, template id and user id are required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEmailJSEndpoint
	}
	return &EmailJSSender{cfg: cfg, http: &http.Client{Timeout: 10 * time.Second}}, nil
}

type emailJSPayload struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send posts one templated email per recipient address in req.To.
// POST: Success is solely a 2xx status; the body is not inspected
func (s *EmailJSSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 {
		return SendResult{}, ErrNoRecipients
	}
	for _, to := range req.To {
		if err := s.post(ctx, to, req); err != nil {
			return SendResult{}, err
		}
	}
	return SendResult{SentAt: time.Now()}, nil
}

func (s *EmailJSSender) post(ctx context.Context, to string, req SendRequest) error {
	fromName := req.FromName
	if fromName == "" {
		fromName = s.cfg.FromName
	}
	fromEmail := req.From
	if fromEmail == "" {
		fromEmail = s.cfg.FromEmail
	}
	replyTo := req.ReplyTo
	if replyTo == "" {
		replyTo = s.cfg.ReplyTo
	}

	payload := emailJSPayload{
		ServiceID:  s.cfg.ServiceID,
		TemplateID: s.cfg.TemplateID,
		UserID:     s.cfg.UserID,
		TemplateParams: map[string]string{
			"to_email":     to,
			"from_name":    fromName,
			"from_email":   fromEmail,
			"reply_to":     replyTo,
			"subject":      req.Subject,
			"message_html": req.HTML,
			"html_content": req.HTML,
		},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(httpReq)
	if err != nil {
		slog.Error("emailjs_send_failed", "error", err, "to", to)
		return &ProviderError{Provider: "emailjs", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("emailjs_send_failed", "status", resp.StatusCode, "to", to)
		return &ProviderError{Provider: "emailjs", StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	slog.Debug("emailjs_sent", "to", to, "subject", req.Subject)
	return nil
}

// SendBatch sends each request in turn.
func (s *EmailJSSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	return sendEach(ctx, s, reqs)
}
