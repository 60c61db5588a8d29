package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/recallhq/recall/pkg/insight"
	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/storage"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
}

// Common error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"
)

// Transport-level errors raised by handlers themselves.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrValidationFailed = errors.New("validation failed")
)

// FieldErrors carries per-field validation failures, keyed by JSON field
// name. It matches ErrValidationFailed.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	return fmt.Sprintf("%s: %d invalid field(s)", ErrValidationFailed, len(e))
}

func (e FieldErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

// HTTPStatusFromError maps domain and transport errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, memory.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrValidationFailed),
		errors.Is(err, memory.ErrInvalidRecord),
		errors.Is(err, storage.ErrInvalidContainer),
		errors.Is(err, insight.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCodeFromStatus returns an error code for the given HTTP status.
func ErrorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeBadRequest
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusMethodNotAllowed:
		return ErrCodeMethodNotAllowed
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusServiceUnavailable:
		return ErrCodeServiceUnavailable
	case http.StatusGatewayTimeout:
		return ErrCodeGatewayTimeout
	default:
		return ErrCodeInternalServer
	}
}

// HandleError writes the envelope for err. Internal errors are reported
// with a generic message so backend details do not leak.
func HandleError(w http.ResponseWriter, err error, requestID string) {
	status := HTTPStatusFromError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	code := ErrorCodeFromStatus(status)
	if errors.Is(err, ErrValidationFailed) {
		code = ErrCodeValidationFailed
	}
	var fields FieldErrors
	if errors.As(err, &fields) {
		ErrorWithDetails(w, status, code, message, map[string]any{"fields": fields}, requestID)
		return
	}
	Error(w, status, code, message, requestID)
}
