package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dietwithdee/internal/adapters/email"
	"dietwithdee/internal/domain/consultation"
)

func TestComposeConsultation_WithMetrics(t *testing.T) {
	res, err := ExecuteComposeConsultation("hello@dietwithdee.org", ComposeConsultationInput{
		Form: consultation.ContactForm{Name: "Ada", Email: "ada@x.io", Message: "Plan please"},
		Calculator: &consultation.CalculatorInput{
			Age: 30, Sex: "male", WeightKg: 70, HeightCm: 175, Activity: "moderate", Goal: "lose",
		},
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if res.Metrics == nil || res.Metrics.BMI != 22.9 {
		t.Fatalf("metrics = %+v", res.Metrics)
	}
	if res.Message.Subject != "Consultation Request - Ada" {
		t.Errorf("subject = %q", res.Message.Subject)
	}
	if !strings.Contains(res.Message.Body, "=== HEALTH METRICS ===") {
		t.Error("body should carry the health metrics section")
	}
	if !strings.HasPrefix(res.Mailto, "mailto:hello@dietwithdee.org?") {
		t.Errorf("mailto = %q", res.Mailto)
	}
	if !strings.HasPrefix(res.Gmail, "https://mail.google.com/mail/?view=cm") {
		t.Errorf("gmail = %q", res.Gmail)
	}
	if !strings.HasPrefix(res.Clipboard, "To: hello@dietwithdee.org\n") {
		t.Errorf("clipboard = %q", res.Clipboard)
	}
}

func TestComposeConsultation_Invalid(t *testing.T) {
	_, err := ExecuteComposeConsultation("hello@dietwithdee.org", ComposeConsultationInput{
		Form: consultation.ContactForm{Email: "not-an-email"},
	})
	var fe consultation.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}

	_, err = ExecuteComposeConsultation("hello@dietwithdee.org", ComposeConsultationInput{
		Form:       consultation.ContactForm{Name: "Ada", Email: "ada@x.io"},
		Calculator: &consultation.CalculatorInput{WeightKg: 1},
	})
	if err == nil {
		t.Error("invalid calculator input should fail")
	}
}

func TestProxySend(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{}
	deps := ProxySendDeps{Sender: sender, From: "hello@dietwithdee.org"}

	if _, err := ExecuteProxySend(ctx, ProxySendInput{To: "a@x.io", Subject: "s", HTML: "<p>x</p>"}, deps); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sender.to) != 1 || sender.to[0] != "a@x.io" {
		t.Errorf("sent to %v", sender.to)
	}

	tests := []struct {
		in   ProxySendInput
		want error
	}{
		{ProxySendInput{Subject: "s", HTML: "h"}, ErrProxyMissingFields},
		{ProxySendInput{To: "a@x.io", HTML: "h"}, ErrProxyMissingFields},
		{ProxySendInput{To: "a@x.io", Subject: "s"}, ErrProxyMissingFields},
		{ProxySendInput{To: "nope", Subject: "s", HTML: "h"}, ErrProxyInvalidEmail},
	}
	for _, tt := range tests {
		if _, err := ExecuteProxySend(ctx, tt.in, deps); !errors.Is(err, tt.want) {
			t.Errorf("ProxySend(%+v) err = %v, want %v", tt.in, err, tt.want)
		}
	}
}

type statusSender struct{ status int }

func (s statusSender) Send(context.Context, email.SendRequest) (email.SendResult, error) {
	return email.SendResult{}, &email.ProviderError{Provider: "resend", StatusCode: s.status, Err: errors.New("rejected")}
}

func (s statusSender) SendBatch(context.Context, []email.SendRequest) ([]email.SendResult, error) {
	return nil, errors.New("unused")
}

func TestProxySend_KeepsProviderStatus(t *testing.T) {
	_, err := ExecuteProxySend(context.Background(), ProxySendInput{To: "a@x.io", Subject: "s", HTML: "h"},
		ProxySendDeps{Sender: statusSender{status: 429}})
	if email.StatusCode(err) != 429 {
		t.Errorf("status = %d, want 429", email.StatusCode(err))
	}
}
