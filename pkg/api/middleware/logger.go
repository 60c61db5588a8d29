// Package middleware provides HTTP middleware components.
package middleware

import (
	"net/http"
	"time"
)

// RequestLogger is the logging surface the access log needs.
type RequestLogger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Logger returns a middleware that writes one access log line per request.
// Server errors are logged at error level and client errors at warn.
func Logger(log RequestLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrap(w)

			next.ServeHTTP(sw, r)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"size", sw.size,
				"request_id", GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
			}
			switch {
			case sw.status >= http.StatusInternalServerError:
				log.Error("HTTP request", args...)
			case sw.status >= http.StatusBadRequest:
				log.Warn("HTTP request", args...)
			default:
				log.Info("HTTP request", args...)
			}
		})
	}
}
