package alerts

import "sync"

// MetricsRecorder defines metrics hooks for alert generation.
type MetricsRecorder interface {
	RecordAlertsGenerated(source string, alertType string, count int)
	RecordCoachCache(result string)
	RecordFallback(surface string, reason string)
}

type nopMetrics struct{}

func (nopMetrics) RecordAlertsGenerated(string, string, int) {}
func (nopMetrics) RecordCoachCache(string)                   {}
func (nopMetrics) RecordFallback(string, string)             {}

var (
	metricsMu sync.RWMutex
	metrics   MetricsRecorder = nopMetrics{}
)

// SetMetricsRecorder sets the package-level alert metrics recorder.
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

func recordAlerts(source Source, alerts []Alert) {
	counts := make(map[Type]int)
	for _, a := range alerts {
		counts[a.Type]++
	}
	rec := metricsRecorder()
	for t, n := range counts {
		rec.RecordAlertsGenerated(string(source), string(t), n)
	}
}
