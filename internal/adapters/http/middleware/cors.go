package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// originAllowed accepts the configured origin and any port on localhost or
// 127.0.0.1 over plain http.
func originAllowed(origin, allowed string) bool {
	if origin == "" {
		return false
	}
	if origin == strings.TrimRight(allowed, "/") {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}

// CORS answers preflights and sets Access-Control headers for cross-origin
// callers of the wrapped handler. Unknown origins get the configured origin
// back, so browsers refuse the response.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			if originAllowed(origin, allowedOrigin) {
				h.Set("Access-Control-Allow-Origin", origin)
			} else {
				h.Set("Access-Control-Allow-Origin", allowedOrigin)
			}
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
