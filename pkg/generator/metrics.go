package generator

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MetricsRecorder defines metrics hooks for provider calls.
type MetricsRecorder interface {
	RecordGeneration(provider string, outcome string, duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordGeneration(string, string, time.Duration) {}

var (
	metricsMu sync.RWMutex
	metrics   MetricsRecorder = nopMetrics{}
)

// SetMetricsRecorder sets the package-level generator metrics recorder.
func SetMetricsRecorder(recorder MetricsRecorder) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if recorder == nil {
		metrics = nopMetrics{}
		return
	}
	metrics = recorder
}

func metricsRecorder() MetricsRecorder {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return metrics
}

// Outcome labels for RecordGeneration.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeEmpty       = "empty"
	OutcomeTimeout     = "timeout"
	OutcomeError       = "error"
)

// OutcomeOf classifies the result of a Complete call.
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, ErrEmptyResponse):
		return OutcomeEmpty
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

type instrumented struct {
	next     Generator
	provider string
}

// Instrumented reports every call to the package metrics recorder.
func Instrumented(next Generator, provider string) Generator {
	return &instrumented{next: next, provider: provider}
}

func (g *instrumented) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := g.next.Complete(ctx, req)
	metricsRecorder().RecordGeneration(g.provider, OutcomeOf(err), time.Since(start))
	return text, err
}
