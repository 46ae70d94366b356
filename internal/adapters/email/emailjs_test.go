package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
)

func newTestEmailJS(t *testing.T) *EmailJSSender {
	t.Helper()
	s, err := NewEmailJSSender(EmailJSConfig{
		ServiceID:  "svc",
		TemplateID: "tpl",
		UserID:     "pub",
		FromName:   "Diet With Dee",
		FromEmail:  "hello@dietwithdee.org",
	})
	if err != nil {
		t.Fatalf("NewEmailJSSender: %v", err)
	}
	return s
}

func TestEmailJS_SendPostsTemplateParams(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var got emailJSPayload
	httpmock.RegisterResponder("POST", DefaultEmailJSEndpoint,
		func(r *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				return httpmock.NewStringResponse(400, "bad json"), nil
			}
			return httpmock.NewStringResponse(200, "OK"), nil
		})

	s := newTestEmailJS(t)
	_, err := s.Send(context.Background(), SendRequest{
		To:      []string{"reader@example.com"},
		Subject: "New Article: Oats",
		HTML:    "<p>hi</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.ServiceID != "svc" || got.TemplateID != "tpl" || got.UserID != "pub" {
		t.Errorf("ids = %+v", got)
	}
	p := got.TemplateParams
	if p["to_email"] != "reader@example.com" {
		t.Errorf("to_email = %q", p["to_email"])
	}
	if p["message_html"] != "<p>hi</p>" || p["html_content"] != "<p>hi</p>" {
		t.Errorf("html params = %q / %q", p["message_html"], p["html_content"])
	}
	if p["from_name"] != "Diet With Dee" {
		t.Errorf("from_name = %q", p["from_name"])
	}
}

func TestEmailJS_OnePostPerRecipient(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("POST", DefaultEmailJSEndpoint, httpmock.NewStringResponder(200, "OK"))

	s := newTestEmailJS(t)
	if _, err := s.Send(context.Background(), SendRequest{To: []string{"a@x.io", "b@x.io", "c@x.io"}}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if n := httpmock.GetTotalCallCount(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestEmailJS_Non2xxIsProviderError(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("POST", DefaultEmailJSEndpoint, httpmock.NewStringResponder(403, "forbidden"))

	s := newTestEmailJS(t)
	_, err := s.Send(context.Background(), SendRequest{To: []string{"a@x.io"}})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if pe.StatusCode != 403 || StatusCode(err) != 403 {
		t.Errorf("status = %d", pe.StatusCode)
	}
}

func TestEmailJS_TransportErrorHasNoStatus(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("POST", DefaultEmailJSEndpoint, httpmock.NewErrorResponder(errors.New("dial failed")))

	s := newTestEmailJS(t)
	_, err := s.Send(context.Background(), SendRequest{To: []string{"a@x.io"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if StatusCode(err) != 0 {
		t.Errorf("status = %d, want 0", StatusCode(err))
	}
}

func TestEmailJS_RequiresIDs(t *testing.T) {
	if _, err := NewEmailJSSender(EmailJSConfig{ServiceID: "svc"}); err == nil {
		t.Error("expected error for missing template/user ids")
	}
}

func TestEmailJS_NoRecipients(t *testing.T) {
	s := newTestEmailJS(t)
	if _, err := s.Send(context.Background(), SendRequest{}); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("err = %v, want ErrNoRecipients", err)
	}
}
