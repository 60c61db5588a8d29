// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/recallhq/recall/pkg/api/middleware"
	"github.com/recallhq/recall/pkg/api/response"
	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/quiz"
)

const maxBodyBytes = 1 << 20

// Logger is the logging surface handlers need.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func orNop(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}

// EventSink receives change notifications for live subscribers.
type EventSink interface {
	MemoryChanged(eventType string, r *memory.Record)
	MemoryDeleted(containerTag, id string)
	QuizAnswered(containerTag string, outcome quiz.Outcome)
}

type nopSink struct{}

func (nopSink) MemoryChanged(string, *memory.Record)  {}
func (nopSink) MemoryDeleted(string, string)         {}
func (nopSink) QuizAnswered(string, quiz.Outcome)    {}

func orNopSink(s EventSink) EventSink {
	if s == nil {
		return nopSink{}
	}
	return s
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", response.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", response.ErrInvalidInput, err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(response.FieldErrors, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return fields
		}
		return fmt.Errorf("%w: %v", response.ErrValidationFailed, err)
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	response.HandleError(w, err, middleware.GetRequestID(r.Context()))
}

func containerTag(r *http.Request) string {
	return chi.URLParam(r, "tag")
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", response.ErrInvalidInput, key)
	}
	return v, nil
}
