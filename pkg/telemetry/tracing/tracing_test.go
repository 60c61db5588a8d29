package tracing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/recallhq/recall/config"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type mockExporter struct {
	shutdownCalled bool
}

func (m *mockExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error {
	return nil
}

func (m *mockExporter) Shutdown(context.Context) error {
	m.shutdownCalled = true
	return nil
}

type failingExporter struct {
	exportCalls int
}

func (f *failingExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error {
	f.exportCalls++
	return errors.New("collector unavailable")
}

func (f *failingExporter) Shutdown(context.Context) error { return nil }

type blockingShutdownExporter struct{}

func (b *blockingShutdownExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error {
	return nil
}

func (b *blockingShutdownExporter) Shutdown(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func enabledConfig() config.TracingConfig {
	return config.TracingConfig{
		Enabled:    true,
		Exporter:   "otlp",
		Endpoint:   "localhost:4317",
		Timeout:    200 * time.Millisecond,
		Sampler:    "always_on",
		SampleRate: 1.0,
	}
}

var testService = Service{Name: "recall", Version: "test", Environment: "development"}

func stubExporter(t *testing.T, exp sdktrace.SpanExporter) *bool {
	t.Helper()
	orig := newExporter
	t.Cleanup(func() { newExporter = orig })
	called := false
	newExporter = func(context.Context, config.TracingConfig) (sdktrace.SpanExporter, error) {
		called = true
		return exp, nil
	}
	return &called
}

func TestInitDisabledDoesNotCreateExporter(t *testing.T) {
	called := stubExporter(t, &mockExporter{})

	shutdown, err := Init(context.Background(), config.TracingConfig{Enabled: false}, testService)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if *called {
		t.Fatal("expected exporter factory not to be called when tracing is disabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}
}

func TestInitEnabledRequiresEndpoint(t *testing.T) {
	cfg := enabledConfig()
	cfg.Endpoint = " "
	_, err := Init(context.Background(), cfg, testService)
	if err == nil || !strings.Contains(err.Error(), "endpoint") {
		t.Fatalf("expected endpoint error, got %v", err)
	}

	cfg = enabledConfig()
	cfg.Timeout = 0
	if _, err := Init(context.Background(), cfg, testService); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestInitEnabledSuccessAndShutdown(t *testing.T) {
	exp := &mockExporter{}
	stubExporter(t, exp)

	cfg := enabledConfig()
	cfg.Endpoint = "http://localhost:4317/v1/traces"
	cfg.Headers = map[string]string{"x-team": "recall"}
	cfg.Sampler = "ratio"
	cfg.SampleRate = 0.1

	shutdown, err := Init(context.Background(), cfg, testService)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}
	if !exp.shutdownCalled {
		t.Fatal("expected exporter shutdown to be called")
	}
}

func TestInitEnabled_ExportFailureIsIsolated(t *testing.T) {
	exporter := &failingExporter{}
	stubExporter(t, exporter)

	origReporter := reportExportFailure
	t.Cleanup(func() { reportExportFailure = origReporter })
	reported := 0
	reportExportFailure = func(err error, endpoint string, spanCount int) {
		reported++
		if err == nil || endpoint != "localhost:4317" || spanCount <= 0 {
			t.Errorf("unexpected report: err=%v endpoint=%q spans=%d", err, endpoint, spanCount)
		}
	}

	shutdown, err := Init(context.Background(), enabledConfig(), testService)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_, span := Tracer("recall/test").Start(context.Background(), "alerts")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown() should not fail on export failure: %v", err)
	}
	if exporter.exportCalls == 0 {
		t.Fatal("expected exporter to receive export calls")
	}
	if reported == 0 {
		t.Fatal("expected export failure to be reported")
	}
}

func TestShutdown_TimeoutIsBounded(t *testing.T) {
	stubExporter(t, &blockingShutdownExporter{})

	shutdown, err := Init(context.Background(), enabledConfig(), testService)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = shutdown(ctx)
	if err == nil {
		t.Fatal("expected shutdown() to return a timeout error")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("shutdown exceeded bounded timeout, elapsed=%v", elapsed)
	}
}

func TestSelectSampler(t *testing.T) {
	tests := []struct {
		sampler string
		want    string
	}{
		{"always_on", "alwaysonsampler"},
		{"always_off", "alwaysoffsampler"},
		{"ratio", "parentbased"},
		{"", "parentbased"},
	}
	for _, tt := range tests {
		got := strings.ToLower(selectSampler(config.TracingConfig{Sampler: tt.sampler, SampleRate: 0.25}).Description())
		if !strings.Contains(got, tt.want) {
			t.Errorf("selectSampler(%q) = %s, want %s", tt.sampler, got, tt.want)
		}
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"localhost:4317":                  "localhost:4317",
		"http://localhost:4317/v1/traces": "localhost:4317",
		"  otel:4317 ":                    "otel:4317",
		"":                                "",
	}
	for in, want := range tests {
		if got := normalizeEndpoint(in); got != want {
			t.Errorf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}
