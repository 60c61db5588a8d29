package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type logLine struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level, msg, args})
}

func (l *recordingLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *recordingLogger) value(i int, key string) any {
	args := l.lines[i].args
	for j := 0; j+1 < len(args); j += 2 {
		if args[j] == key {
			return args[j+1]
		}
	}
	return nil
}

func status(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generates", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagates", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	})

	t.Run("replaces overlong ids", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Len(t, seen, 36)
	})

	assert.Empty(t, GetRequestID(context.Background()))
}

func TestLogger(t *testing.T) {
	tests := []struct {
		code  int
		level string
	}{
		{http.StatusOK, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusServiceUnavailable, "error"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			log := &recordingLogger{}
			handler := RequestID()(Logger(log)(status(tt.code)))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/users/u1/alerts", nil))

			require.Len(t, log.lines, 1)
			assert.Equal(t, tt.level, log.lines[0].level)
			assert.Equal(t, tt.code, log.value(0, "status"))
			assert.Equal(t, 2, log.value(0, "size"))
			assert.NotEmpty(t, log.value(0, "request_id"))
		})
	}
}

func TestRecovery(t *testing.T) {
	log := &recordingLogger{}
	handler := RequestID()(Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("secret detail")
	})))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "req-9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")

	var body struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
	assert.Equal(t, "req-9", body.Error.RequestID)
	require.Len(t, log.lines, 1)
	assert.Equal(t, "error", log.lines[0].level)
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := Timeout(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)

	handler = Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = r.Context().Deadline()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.False(t, ok)
}

type fakeHTTPMetrics struct {
	mu       sync.Mutex
	requests []string
	active   int
}

func (f *fakeHTTPMetrics) RecordHTTPRequestContext(_ context.Context, method, path, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, method+" "+path+" "+status)
}

func (f *fakeHTTPMetrics) IncActiveConnections() { f.mu.Lock(); f.active++; f.mu.Unlock() }
func (f *fakeHTTPMetrics) DecActiveConnections() { f.mu.Lock(); f.active--; f.mu.Unlock() }

func TestMetrics_UsesRoutePattern(t *testing.T) {
	rec := &fakeHTTPMetrics{}
	r := chi.NewRouter()
	r.Use(Metrics(rec))
	r.Get("/api/v1/users/{tag}/memories/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/users/alice/memories/m-1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, []string{"GET /api/v1/users/{tag}/memories/{id} 404"}, rec.requests)
	assert.Equal(t, 0, rec.active)
}

func TestMetrics_RecordsPanics(t *testing.T) {
	rec := &fakeHTTPMetrics{}
	handler := Metrics(rec)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))
	})
	assert.Equal(t, []string{"GET /x 500"}, rec.requests)
}

func TestTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var spanCtx trace.SpanContext
	r := chi.NewRouter()
	r.Use(Tracing(DefaultTracingOptions()))
	r.Get("/api/v1/users/{tag}/dashboard", func(w http.ResponseWriter, r *http.Request) {
		spanCtx = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/users/u1/dashboard", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.True(t, spanCtx.IsValid())
	assert.Equal(t, "GET /api/v1/users/{tag}/dashboard", spans[0].Name)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)
}
