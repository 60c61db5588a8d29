package insight

import (
	"sync"

	"github.com/recallhq/recall/pkg/patterns"
)

// MetricsRecorder defines metrics hooks for the insight surfaces.
type MetricsRecorder interface {
	RecordPatternDetected(patternType string)
	RecordFallback(surface string, reason string)
}

type nopMetrics struct{}

func (nopMetrics) RecordPatternDetected(string)  {}
func (nopMetrics) RecordFallback(string, string) {}

var (
	metricsMu sync.RWMutex
	metrics   MetricsRecorder = nopMetrics{}
)

// SetMetricsRecorder sets the package-level insight metrics recorder.
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

func recordPatterns(ps []patterns.Pattern) {
	rec := metricsRecorder()
	for _, p := range ps {
		rec.RecordPatternDetected(string(p.Type))
	}
}
