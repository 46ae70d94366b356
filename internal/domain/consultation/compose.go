package consultation

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Section markers in the composed body.
const (
	markerContact = "=== CONTACT DETAILS ==="
	markerMetrics = "=== HEALTH METRICS ==="
	markerMessage = "=== MESSAGE ==="
)

// ContactForm is the consultation booking form.
type ContactForm struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone" validate:"omitempty,max=30"`
	Service string `json:"service" validate:"omitempty,max=100"`
	Message string `json:"message" validate:"max=5000"`
}

// Message is a composed email ready for an external mail client.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// FieldErrors maps lowercased field names to the failed rule tags.
type FieldErrors map[string][]string

// Error implements error.
func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for field, tags := range f {
		parts = append(parts, field+": "+strings.Join(tags, ","))
	}
	return "invalid contact form: " + strings.Join(parts, "; ")
}

// Validate checks required fields and the email shape.
// PRE: none
// POST: Returns nil or FieldErrors naming each invalid field
func (f ContactForm) Validate() error {
	err := formValidator().Struct(f)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := FieldErrors{}
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		fields[name] = append(fields[name], fe.Tag())
	}
	return fields
}

// Compose renders the consultation email. metrics may be nil when the
// visitor never ran the calculator.
// PRE: form passes Validate
// POST: Body contains the contact section, the message section, and the
// metrics section only when metrics is non-nil
func Compose(to string, form ContactForm, metrics *HealthMetrics) Message {
	name := strings.TrimSpace(form.Name)
	var b strings.Builder

	b.WriteString(markerContact + "\n")
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Email: %s\n", strings.TrimSpace(form.Email))
	if form.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", strings.TrimSpace(form.Phone))
	}
	if form.Service != "" {
		fmt.Fprintf(&b, "Service: %s\n", strings.TrimSpace(form.Service))
	}

	if metrics != nil {
		b.WriteString("\n" + markerMetrics + "\n")
		fmt.Fprintf(&b, "BMI: %.1f (%s)\n", metrics.BMI, metrics.Category)
		fmt.Fprintf(&b, "Daily calories: %d kcal\n", metrics.DailyCalories)
		fmt.Fprintf(&b, "Macros: protein %dg, carbs %dg, fat %dg\n",
			metrics.Macros.ProteinG, metrics.Macros.CarbsG, metrics.Macros.FatG)
		if metrics.Goal != "" {
			fmt.Fprintf(&b, "Goal: %s\n", metrics.Goal)
		}
		restriction := metrics.DietaryRestriction
		if restriction == "" {
			restriction = "none"
		}
		fmt.Fprintf(&b, "Dietary restriction: %s\n", restriction)
	}

	b.WriteString("\n" + markerMessage + "\n")
	msg := strings.TrimSpace(form.Message)
	if msg == "" {
		msg = "I would like to book a consultation."
	}
	b.WriteString(msg + "\n")

	return Message{
		To:      to,
		Subject: "Consultation Request - " + name,
		Body:    b.String(),
	}
}

// encodeComponent percent-encodes s for a URL query value, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// MailtoURL builds a mailto: link that opens the default mail client.
func MailtoURL(m Message) string {
	return "mailto:" + m.To + "?subject=" + encodeComponent(m.Subject) + "&body=" + encodeComponent(m.Body)
}

// GmailComposeURL builds a Gmail web compose link.
func GmailComposeURL(m Message) string {
	return "https://mail.google.com/mail/?view=cm&fs=1&to=" + encodeComponent(m.To) +
		"&su=" + encodeComponent(m.Subject) + "&body=" + encodeComponent(m.Body)
}

// ClipboardText renders the message as plain text for copying.
func ClipboardText(m Message) string {
	return "To: " + m.To + "\nSubject: " + m.Subject + "\n\n" + m.Body
}
