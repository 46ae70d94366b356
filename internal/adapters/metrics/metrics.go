// Package metrics exposes Prometheus counters for newsletter dispatch,
// outbound email and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// dispatchTotal counts dispatch attempts by outcome.
	// Labels:
	// - status: "sent", "no_subscribers", "already_sent", "in_progress", "error"
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dietwithdee",
			Subsystem: "newsletter",
			Name:      "dispatch_total",
			Help:      "Newsletter dispatch attempts by outcome.",
		},
		[]string{"status"},
	)

	// recipientsTotal counts per-recipient delivery results.
	// Labels:
	// - result: "sent" or "failed"
	recipientsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dietwithdee",
			Subsystem: "newsletter",
			Name:      "recipients_total",
			Help:      "Newsletter recipient deliveries by result.",
		},
		[]string{"result"},
	)

	dispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dietwithdee",
			Subsystem: "newsletter",
			Name:      "dispatch_duration_seconds",
			Help:      "Wall time of a newsletter dispatch.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	// emailProxyTotal counts edge proxy sends.
	// Labels:
	// - result: "ok" or "error"
	emailProxyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dietwithdee",
			Subsystem: "email",
			Name:      "proxy_total",
			Help:      "Emails relayed through the send-email proxy.",
		},
		[]string{"result"},
	)

	rateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dietwithdee",
			Subsystem: "http",
			Name:      "rate_limit_exceeded_total",
			Help:      "Requests rejected by the rate limiter (HTTP 429).",
		},
		[]string{"path"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dietwithdee",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests processed.",
		},
		[]string{"method", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dietwithdee",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// IncDispatch records one dispatch outcome.
func IncDispatch(status string) {
	dispatchTotal.WithLabelValues(orUnknown(status)).Inc()
}

// AddRecipients records delivered and failed recipient counts.
func AddRecipients(sent, failed int) {
	if sent > 0 {
		recipientsTotal.WithLabelValues("sent").Add(float64(sent))
	}
	if failed > 0 {
		recipientsTotal.WithLabelValues("failed").Add(float64(failed))
	}
}

// ObserveDispatchDuration records how long a dispatch took.
func ObserveDispatchDuration(d time.Duration) {
	dispatchDuration.Observe(d.Seconds())
}

// IncEmailProxy records one proxy send result.
func IncEmailProxy(ok bool) {
	if ok {
		emailProxyTotal.WithLabelValues("ok").Inc()
		return
	}
	emailProxyTotal.WithLabelValues("error").Inc()
}

// IncRateLimitExceeded increments the 429 counter for path.
func IncRateLimitExceeded(path string) {
	rateLimitExceeded.WithLabelValues(orUnknown(path)).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Middleware instruments each request. Paths are not used as labels to keep
// cardinality bounded under article ids.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(sw.status)).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
