package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dietwithdee/internal/adapters/http/perf"
)

// DefaultSlowRequest is the default threshold for slow request warnings.
const DefaultSlowRequest = 500 * time.Millisecond

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

type requestIDKey struct{}

// RequestIDFromContext returns the id Timing assigned, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID keeps a well-formed inbound id so traces from the edge proxy
// line up, and mints a fresh one otherwise.
func requestID(r *http.Request) string {
	id := r.Header.Get(RequestIDHeader)
	if id == "" || len(id) > maxRequestIDLength {
		return uuid.NewString()
	}
	for _, c := range id {
		if !(c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return uuid.NewString()
		}
	}
	return id
}

// recorder captures the status and body size of a response.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *recorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *recorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

var recorderPool = sync.Pool{New: func() any { return new(recorder) }}

// untimed paths are assets and the scrape endpoint.
func untimed(path string) bool {
	return strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/uploads/") || path == "/metrics"
}

// Timing tags each request with an id, logs its duration and feeds the
// perf collector when one is given. Requests at or over slow log at WARN,
// the rest at DEBUG.
func Timing(collector *perf.Collector, slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequest
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if untimed(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			id := requestID(r)
			w.Header().Set(RequestIDHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

			rw := recorderPool.Get().(*recorder)
			*rw = recorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			defer func() {
				elapsed := time.Since(start)
				ms := float64(elapsed.Microseconds()) / 1000
				level := slog.LevelDebug
				msg := "request"
				if elapsed >= slow {
					level, msg = slog.LevelWarn, "slow_request"
				}
				slog.Log(r.Context(), level, msg,
					"request_id", id,
					"method", r.Method,
					"path", r.URL.Path,
					"status", rw.status,
					"bytes", rw.bytes,
					"duration_ms", ms,
				)
				if collector != nil {
					collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       r.Method + " " + routeLabel(r),
						StatusCode: rw.status,
						DurationMs: ms,
						Timestamp:  start,
					})
				}
				*rw = recorder{}
				recorderPool.Put(rw)
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

// routeLabel prefers the matched mux pattern so article ids do not split
// the stats. The pattern is only set when Timing wraps the mux directly.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return r.URL.Path
	}
	if _, p, ok := strings.Cut(r.Pattern, " "); ok {
		return p
	}
	return r.Pattern
}
