package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"dietwithdee/internal/adapters/email"
	"dietwithdee/internal/application/listutil"
	"dietwithdee/internal/application/orchestrators"
	"dietwithdee/internal/domain/consultation"
	"dietwithdee/internal/domain/popup"
	"dietwithdee/internal/domain/subscriber"
)

// ProxyTimeout bounds one provider call made by the email proxy.
var ProxyTimeout = 15 * time.Second

type subscribeRequest struct {
	Email string `json:"email"`
}

// handleSubscribe adds an address to the newsletter list and marks the
// visitor's popup state as subscribed.
func handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := orchestrators.ExecuteSubscribe(r.Context(), orchestrators.SubscribeInput{Email: req.Email},
		orchestrators.SubscribeDeps{Store: stores.SubscriberStore, Now: timeNow})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	setPopupState(w, popup.MarkSubscribed(popupState(r)))
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": id})
}

// handleAdminSubscribers lists signup records, newest first. count is the
// total before filtering; ?q= filters by address and page/per_page page it.
func handleAdminSubscribers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	subs, err := orchestrators.ExecuteListSubscribers(r.Context(), orchestrators.SubscribeDeps{Store: stores.SubscriberStore})
	if err != nil {
		internalError(w, err)
		return
	}
	params := listutil.ParsePageParams(r.URL.Query())
	matched := listutil.Filter(subs, params.Search, func(s subscriber.Subscriber) string { return s.Email })
	pageItems, info := listutil.Paginate(matched, params)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(subs),
		"subscribers": pageItems,
		"page":        info,
	})
}

// handleCalculator computes health metrics without storing anything.
func handleCalculator(w http.ResponseWriter, r *http.Request) {
	var in consultation.CalculatorInput
	if err := strictDecode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := consultation.Calculate(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type composeRequest struct {
	consultation.ContactForm
	Calculator *consultation.CalculatorInput `json:"calculator,omitempty"`
}

type composeResponse struct {
	consultation.Message
	Metrics   *consultation.HealthMetrics `json:"metrics,omitempty"`
	Mailto    string                      `json:"mailto"`
	Gmail     string                      `json:"gmail"`
	Clipboard string                      `json:"clipboard"`
}

// handleComposeConsultation builds the consultation email for the visitor's
// own mail client. Nothing is sent server-side.
func handleComposeConsultation(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := orchestrators.ExecuteComposeConsultation(options.ConsultationEmail, orchestrators.ComposeConsultationInput{
		Form:       req.ContactForm,
		Calculator: req.Calculator,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, composeResponse{
		Message:   res.Message,
		Metrics:   res.Metrics,
		Mailto:    res.Mailto,
		Gmail:     res.Gmail,
		Clipboard: res.Clipboard,
	})
}

// handleSendEmail is the edge email proxy. Provider status codes are passed
// through; failures without one become 502.
func handleSendEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}
	if services.Mailer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Email service is not configured"})
		return
	}
	var in orchestrators.ProxySendInput
	if err := strictDecode(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	res, err := orchestrators.ExecuteProxySend(r.Context(), in, orchestrators.ProxySendDeps{
		Sender:  services.Mailer,
		From:    options.EmailFrom,
		ReplyTo: options.ReplyTo,
		Timeout: ProxyTimeout,
	})
	switch {
	case errors.Is(err, orchestrators.ErrProxyMissingFields):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: to, subject, html"})
		return
	case errors.Is(err, orchestrators.ErrProxyInvalidEmail):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid email address"})
		return
	case err != nil:
		status := email.StatusCode(err)
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		slog.Warn("email_proxy_rejected", "status", status)
		writeJSON(w, status, map[string]string{"error": "Failed to send email"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": res.MessageID})
}
