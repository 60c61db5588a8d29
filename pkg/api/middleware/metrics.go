package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MetricsRecorder defines the interface for recording HTTP metrics.
type MetricsRecorder interface {
	RecordHTTPRequestContext(ctx context.Context, method, path, status string, duration time.Duration)
	IncActiveConnections()
	DecActiveConnections()
}

// Metrics returns a middleware that records HTTP metrics labelled by the
// chi route pattern, so container tags and memory ids never become labels.
func Metrics(recorder MetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/metrics") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			recorder.IncActiveConnections()
			defer recorder.DecActiveConnections()

			sw := wrap(w)
			defer func() {
				if err := recover(); err != nil {
					recorder.RecordHTTPRequestContext(r.Context(), r.Method, routePattern(r), "500", time.Since(start))
					panic(err)
				}
			}()

			next.ServeHTTP(sw, r)
			recorder.RecordHTTPRequestContext(r.Context(), r.Method, routePattern(r), strconv.Itoa(sw.status), time.Since(start))
		})
	}
}
