package consultation_test

import (
	"errors"
	"strings"
	"testing"

	"dietwithdee/internal/domain/consultation"
)

// TestContactFormValidation reports the failing fields.
func TestContactFormValidation(t *testing.T) {
	ok := consultation.ContactForm{Name: "Ana", Email: "ana@example.com"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid form: %v", err)
	}

	err := consultation.ContactForm{Email: "not-an-email"}.Validate()
	var fields consultation.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %T %v", err, err)
	}
	if _, ok := fields["name"]; !ok {
		t.Error("expected name to be reported")
	}
	if tags := fields["email"]; len(tags) == 0 || tags[0] != "email" {
		t.Errorf("email tags = %v", tags)
	}
}

// TestCompose_WithMetrics includes every section.
func TestCompose_WithMetrics(t *testing.T) {
	m, _ := consultation.Calculate(validInput())
	msg := consultation.Compose("dee@example.com", consultation.ContactForm{
		Name: "Ana", Email: "ana@example.com", Message: "Hi Dee",
	}, &m)

	if msg.To != "dee@example.com" {
		t.Errorf("To = %q", msg.To)
	}
	if msg.Subject != "Consultation Request - Ana" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	for _, want := range []string{"=== CONTACT DETAILS ===", "=== HEALTH METRICS ===", "=== MESSAGE ===", "BMI: 22.9 (Normal)", "Hi Dee", "Dietary restriction: none"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

// TestCompose_WithoutMetrics omits the metrics section.
func TestCompose_WithoutMetrics(t *testing.T) {
	msg := consultation.Compose("dee@example.com", consultation.ContactForm{Name: "Ana", Email: "ana@example.com"}, nil)
	if strings.Contains(msg.Body, "HEALTH METRICS") {
		t.Error("unexpected metrics section")
	}
	if !strings.Contains(msg.Body, "I would like to book a consultation.") {
		t.Error("expected default message")
	}
}

// TestDeliveryURLs encodes spaces and reserved characters.
func TestDeliveryURLs(t *testing.T) {
	msg := consultation.Message{To: "dee@example.com", Subject: "Hi & bye", Body: "line one\nline two"}

	mailto := consultation.MailtoURL(msg)
	if mailto != "mailto:dee@example.com?subject=Hi%20%26%20bye&body=line%20one%0Aline%20two" {
		t.Errorf("MailtoURL = %q", mailto)
	}

	gmail := consultation.GmailComposeURL(msg)
	if !strings.HasPrefix(gmail, "https://mail.google.com/mail/?view=cm&fs=1&to=dee%40example.com&su=Hi%20%26%20bye") {
		t.Errorf("GmailComposeURL = %q", gmail)
	}

	clip := consultation.ClipboardText(msg)
	if clip != "To: dee@example.com\nSubject: Hi & bye\n\nline one\nline two" {
		t.Errorf("ClipboardText = %q", clip)
	}
}
