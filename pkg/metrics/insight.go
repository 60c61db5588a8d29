package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func (m *Manager) initInsightMetrics() {
	m.alertsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_alerts_generated_total",
			Help: "Alerts produced by source and type",
		},
		[]string{"source", "type"},
	)

	m.coachCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_coach_cache_total",
			Help: "Coach cache lookups by result",
		},
		[]string{"result"},
	)

	m.fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_fallbacks_total",
			Help: "Degraded responses served from deterministic fallbacks",
		},
		[]string{"surface", "reason"},
	)

	m.patternsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_patterns_detected_total",
			Help: "Patterns reported by type",
		},
		[]string{"type"},
	)

	m.quizAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_quiz_attempts_total",
			Help: "Recorded quiz answers by outcome",
		},
		[]string{"outcome"},
	)

	m.registry.MustRegister(m.alertsGenerated)
	m.registry.MustRegister(m.coachCache)
	m.registry.MustRegister(m.fallbacks)
	m.registry.MustRegister(m.patternsDetected)
	m.registry.MustRegister(m.quizAttempts)
}

func (m *Manager) initGeneratorMetrics(cfg Config) {
	m.generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_generator_requests_total",
			Help: "Generator calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	m.generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recall_generator_duration_seconds",
			Help:    "Generator call latency in seconds",
			Buckets: cfg.GenerationDurationBuckets,
		},
		[]string{"provider"},
	)

	m.registry.MustRegister(m.generations)
	m.registry.MustRegister(m.generationDuration)
}

// RecordAlertsGenerated counts alerts of one type produced by source.
func (m *Manager) RecordAlertsGenerated(source string, alertType string, count int) {
	if !m.enabled || count <= 0 {
		return
	}
	m.alertsGenerated.WithLabelValues(source, alertType).Add(float64(count))
}

// RecordCoachCache records a coach cache hit or miss.
func (m *Manager) RecordCoachCache(result string) {
	if !m.enabled {
		return
	}
	m.coachCache.WithLabelValues(result).Inc()
}

// RecordFallback records a degraded response on surface.
func (m *Manager) RecordFallback(surface string, reason string) {
	if !m.enabled {
		return
	}
	m.fallbacks.WithLabelValues(surface, reason).Inc()
}

// RecordPatternDetected counts a reported pattern.
func (m *Manager) RecordPatternDetected(patternType string) {
	if !m.enabled {
		return
	}
	m.patternsDetected.WithLabelValues(patternType).Inc()
}

// RecordQuizAttempt counts a quiz answer.
func (m *Manager) RecordQuizAttempt(outcome string) {
	if !m.enabled {
		return
	}
	m.quizAttempts.WithLabelValues(outcome).Inc()
}

// RecordGeneration records one generator call.
func (m *Manager) RecordGeneration(provider string, outcome string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.generations.WithLabelValues(provider, outcome).Inc()
	m.generationDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
