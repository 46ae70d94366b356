package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncDispatch(t *testing.T) {
	before := testutil.ToFloat64(dispatchTotal.WithLabelValues("already_sent"))
	IncDispatch("already_sent")
	if got := testutil.ToFloat64(dispatchTotal.WithLabelValues("already_sent")); got != before+1 {
		t.Errorf("already_sent = %v, want %v", got, before+1)
	}

	beforeUnknown := testutil.ToFloat64(dispatchTotal.WithLabelValues("unknown"))
	IncDispatch("")
	if got := testutil.ToFloat64(dispatchTotal.WithLabelValues("unknown")); got != beforeUnknown+1 {
		t.Errorf("empty status should count as unknown")
	}
}

func TestAddRecipients(t *testing.T) {
	sent := testutil.ToFloat64(recipientsTotal.WithLabelValues("sent"))
	failed := testutil.ToFloat64(recipientsTotal.WithLabelValues("failed"))

	AddRecipients(7, 3)
	AddRecipients(0, 0)

	if got := testutil.ToFloat64(recipientsTotal.WithLabelValues("sent")); got != sent+7 {
		t.Errorf("sent = %v", got)
	}
	if got := testutil.ToFloat64(recipientsTotal.WithLabelValues("failed")); got != failed+3 {
		t.Errorf("failed = %v", got)
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "418"))

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/x", nil))

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "418")); got != before+1 {
		t.Errorf("requests_total{POST,418} = %v, want %v", got, before+1)
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	IncEmailProxy(true)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "dietwithdee_email_proxy_total") {
		t.Error("expected dietwithdee_email_proxy_total in exposition")
	}
}
