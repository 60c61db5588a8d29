package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/recallhq/recall/pkg/api/response"
)

// Recovery returns a middleware that turns panics into a 500 envelope.
// The panic value is logged but never echoed to the client.
func Recovery(log RequestLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.Error("Panic recovered",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
						"request_id", GetRequestID(r.Context()),
						"stack", string(debug.Stack()),
					)
					response.Error(w,
						http.StatusInternalServerError,
						response.ErrCodeInternalServer,
						"Internal server error",
						GetRequestID(r.Context()),
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
