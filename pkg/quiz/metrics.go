package quiz

import "sync"

// MetricsRecorder defines metrics hooks for quiz activity.
type MetricsRecorder interface {
	RecordQuizAttempt(outcome string)
	RecordFallback(surface string, reason string)
}

type nopMetrics struct{}

func (nopMetrics) RecordQuizAttempt(string)      {}
func (nopMetrics) RecordFallback(string, string) {}

var (
	metricsMu sync.RWMutex
	metrics   MetricsRecorder = nopMetrics{}
)

// SetMetricsRecorder sets the package-level quiz metrics recorder.
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
