//go:build browser

package browser_test

import (
	"net/http"
	"testing"
)

// TestSmoke_PublishSendsNewsletterOnce publishes an article with two
// subscribers and checks a resend is short-circuited by the marker.
func TestSmoke_PublishSendsNewsletterOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)

	for _, addr := range []string{"one@example.com", "ONE@example.com", "two@example.com"} {
		res := fetchJSON(t, page, "POST", "/api/subscribe", map[string]string{"email": addr})
		if res.Status != http.StatusCreated {
			t.Fatalf("subscribe %s: %d %v", addr, res.Status, res.Body)
		}
	}

	app.login(t, page)
	res := fetchJSON(t, page, "POST", "/api/admin/articles", map[string]string{
		"title":   "Eating for energy",
		"content": "<p>Breakfast matters.</p>",
	})
	if res.Status != http.StatusCreated {
		t.Fatalf("publish: %d %v", res.Status, res.Body)
	}
	body := res.Body.(map[string]any)
	nl := body["newsletter"].(map[string]any)
	if nl["status"] != "sent" || toInt(nl["sent"]) != 2 {
		t.Fatalf("newsletter = %v", nl)
	}
	if app.Sender.Sent() != 2 {
		t.Errorf("sender saw %d emails, want 2", app.Sender.Sent())
	}

	id := body["article"].(map[string]any)["id"].(string)
	res = fetchJSON(t, page, "POST", "/api/admin/articles/"+id+"/newsletter", nil)
	if res.Status != http.StatusOK {
		t.Fatalf("resend: %d %v", res.Status, res.Body)
	}
	if got := res.Body.(map[string]any)["status"]; got != "already_sent" {
		t.Errorf("resend status = %v, want already_sent", got)
	}
	if app.Sender.Sent() != 2 {
		t.Errorf("resend delivered again: %d", app.Sender.Sent())
	}
}

// TestSmoke_VisitorPopupAndHistory walks the anonymous visitor flow.
func TestSmoke_VisitorPopupAndHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)

	res := fetchJSON(t, page, "GET", "/api/popup", nil)
	if res.Body.(map[string]any)["showPopup"] != true {
		t.Fatalf("fresh popup = %v", res.Body)
	}
	fetchJSON(t, page, "POST", "/api/popup/dismiss", nil)
	res = fetchJSON(t, page, "GET", "/api/popup", nil)
	if res.Body.(map[string]any)["showPopup"] != false {
		t.Fatalf("dismissed popup = %v", res.Body)
	}

	res = fetchJSON(t, page, "GET", "/api/visitor", nil)
	id := res.Body.(map[string]any)["id"].(string)
	res = fetchJSON(t, page, "POST", "/api/profile/"+id+"/logs", map[string]any{
		"age": 35, "sex": "female", "weightKg": 70, "heightCm": 165,
		"activity": "moderate", "goal": "lose",
	})
	if res.Status != http.StatusCreated {
		t.Fatalf("save snapshot: %d %v", res.Status, res.Body)
	}
	res = fetchJSON(t, page, "GET", "/api/profile/"+id+"/logs", nil)
	if list, ok := res.Body.([]any); !ok || len(list) != 1 {
		t.Errorf("history = %v", res.Body)
	}
}

// TestSmoke_ConsultationCompose checks the composed mail links.
func TestSmoke_ConsultationCompose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)

	res := fetchJSON(t, page, "POST", "/api/consultation/compose", map[string]any{
		"name":    "Kofi",
		"email":   "kofi@example.com",
		"service": "Sports nutrition",
		"message": "Marathon in May",
	})
	if res.Status != http.StatusOK {
		t.Fatalf("compose: %d %v", res.Status, res.Body)
	}
	if to := res.Body.(map[string]any)["to"]; to != "dee@test.com" {
		t.Errorf("to = %v", to)
	}
}
