package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/recallhq/recall/pkg/alerts"
	"github.com/recallhq/recall/pkg/generator"
	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/patterns"
	"github.com/recallhq/recall/pkg/relevance"
	"github.com/recallhq/recall/pkg/storage"
)

// Fallback reasons specific to the insight surfaces. Generator-related
// reasons reuse the alerts constants.
const (
	ReasonStoreUnavailable = "store_unavailable"
)

// AlertMode selects the alert engine.
type AlertMode string

const (
	ModeRules AlertMode = "rules"
	ModeCoach AlertMode = "coach"
)

// ParseAlertMode maps raw values; anything but "rules" means coach.
func ParseAlertMode(s string) AlertMode {
	if AlertMode(strings.ToLower(strings.TrimSpace(s))) == ModeRules {
		return ModeRules
	}
	return ModeCoach
}

const tracerName = "recall/insight"

type serviceLogger interface {
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

// Service composes the engines over a store.
type Service struct {
	store    storage.Store
	scorer   *relevance.Scorer
	detector *patterns.Detector
	coach    *alerts.Coach
	gen      generator.Generator
	logger   serviceLogger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithScorer sets the relevance scorer.
func WithScorer(s *relevance.Scorer) Option {
	return func(svc *Service) {
		if s != nil {
			svc.scorer = s
		}
	}
}

// WithDetector sets the pattern detector.
func WithDetector(d *patterns.Detector) Option {
	return func(svc *Service) {
		if d != nil {
			svc.detector = d
		}
	}
}

// WithCoach sets the alert coach. Its rule engine serves ModeRules.
func WithCoach(c *alerts.Coach) Option {
	return func(svc *Service) {
		if c != nil {
			svc.coach = c
		}
	}
}

// WithGenerator sets the generator used for chat replies and dashboard insights.
func WithGenerator(g generator.Generator) Option {
	return func(svc *Service) {
		if g != nil {
			svc.gen = g
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l serviceLogger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// NewService creates a Service. Unset collaborators get defaults: a plain
// scorer and detector, a coach with no generator, and generator.Unavailable.
func NewService(store storage.Store, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		gen:    generator.Unavailable{},
		logger: nopLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.scorer == nil {
		svc.scorer = relevance.NewScorer()
	}
	if svc.detector == nil {
		svc.detector = patterns.NewDetector(patterns.WithClock(svc.now))
	}
	if svc.coach == nil {
		svc.coach = alerts.NewCoach(nil, alerts.WithRules(alerts.NewRules(alerts.WithClock(svc.now))))
	}
	return svc
}

func (s *Service) records(ctx context.Context, tag string) ([]*memory.Record, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "insight.records")
	defer span.End()

	records, err := s.store.List(ctx, tag, storage.Filter{})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list memories: %w", err)
	}
	return records, nil
}

// Stats returns counters for a container.
func (s *Service) Stats(ctx context.Context, tag string) (Stats, error) {
	records, err := s.records(ctx, tag)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(records, s.now()), nil
}

// Alerts returns alerts for a container. Store errors are returned; generator
// errors degrade to rule-based alerts inside the coach.
func (s *Service) Alerts(ctx context.Context, tag string, mode AlertMode) (alerts.Result, error) {
	records, err := s.records(ctx, tag)
	if err != nil {
		return alerts.Result{}, err
	}
	return s.alertsFor(ctx, tag, mode, records), nil
}

func (s *Service) alertsFor(ctx context.Context, tag string, mode AlertMode, records []*memory.Record) alerts.Result {
	if mode == ModeRules {
		return alerts.Result{Alerts: s.coach.Rules().Generate(records), Source: alerts.SourceRules}
	}
	return s.coach.Alerts(ctx, tag, records)
}

// Patterns returns the detected patterns for a container.
func (s *Service) Patterns(ctx context.Context, tag string) ([]patterns.Pattern, error) {
	records, err := s.records(ctx, tag)
	if err != nil {
		return nil, err
	}
	ps := s.detector.Detect(records)
	recordPatterns(ps)
	return ps, nil
}

// Search ranks every record in the container against query with the
// relevance scorer. limit <= 0 returns all positive matches.
func (s *Service) Search(ctx context.Context, tag, query string, limit int) ([]relevance.ScoredRecord, error) {
	records, err := s.records(ctx, tag)
	if err != nil {
		return nil, err
	}
	scored := s.scorer.Score(query, nil, records)
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// TextSearch runs the backend's full-text search.
func (s *Service) TextSearch(ctx context.Context, tag, query string, limit int) ([]*memory.Record, error) {
	records, err := s.store.Search(ctx, tag, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	return records, nil
}

// Dashboard is the combined home view.
type Dashboard struct {
	Stats          Stats              `json:"stats"`
	Alerts         alerts.Result      `json:"alerts"`
	Patterns       []patterns.Pattern `json:"patterns"`
	Insight        string             `json:"insight"`
	InsightSource  string             `json:"insightSource"`
	Degraded       bool               `json:"degraded"`
	FallbackReason string             `json:"fallback_reason,omitempty"`
}

const insightSystemPrompt = `You are a friendly learning coach. In one or two sentences, give the user a single encouraging,
specific observation about their notes based on the stats and habits provided. Plain text only.`

// Dashboard assembles stats, coached alerts, patterns and a one-line insight.
func (s *Service) Dashboard(ctx context.Context, tag string) (Dashboard, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "insight.Service.Dashboard")
	defer span.End()

	records, err := s.records(ctx, tag)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Stats:    ComputeStats(records, s.now()),
		Alerts:   s.alertsFor(ctx, tag, ModeCoach, records),
		Patterns: s.detector.Detect(records),
	}
	if d.Patterns == nil {
		d.Patterns = []patterns.Pattern{}
	}
	recordPatterns(d.Patterns)

	text, err := s.gen.Complete(ctx, generator.Prompt(insightSystemPrompt, insightPrompt(d.Stats, d.Patterns), 200, 0.7))
	text = strings.TrimSpace(text)
	switch {
	case err == nil && text != "":
		d.Insight, d.InsightSource = text, "ai"
	default:
		reason := generatorReason(err)
		s.logger.Debug("dashboard insight fallback", "reason", reason, "error", err)
		metricsRecorder().RecordFallback("dashboard", reason)
		d.Insight, d.InsightSource = CannedInsight(d.Stats, d.Patterns), "rules"
		d.Degraded, d.FallbackReason = true, reason
	}
	if d.Alerts.Degraded {
		d.Degraded = true
		if d.FallbackReason == "" {
			d.FallbackReason = d.Alerts.FallbackReason
		}
	}
	return d, nil
}

func insightPrompt(st Stats, ps []patterns.Pattern) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Notes: %d total, %d reviewed, %d unreviewed, %d due this week, %d added this week.\n",
		st.Total, st.Reviewed, st.Unreviewed, st.DueThisWeek, st.AddedThisWeek)
	if st.AverageRetention != nil {
		fmt.Fprintf(&b, "Average quiz retention: %.0f%% over %d quizzed notes.\n", *st.AverageRetention*100, st.Quizzed)
	}
	for _, p := range ps {
		fmt.Fprintf(&b, "- %s: %s\n", p.Title, p.Description)
	}
	return b.String()
}

// CannedInsight is the deterministic one-liner used when no generator answers.
func CannedInsight(st Stats, ps []patterns.Pattern) string {
	switch {
	case st.Total == 0:
		return "Start by saving your first note. Insights appear as your collection grows."
	case st.Unreviewed == 0:
		return fmt.Sprintf("All %d notes are reviewed. Great work keeping up!", st.Total)
	}
	for _, p := range ps {
		if p.Type == patterns.TypeGap {
			return fmt.Sprintf("%s. %s", p.Title, p.Description)
		}
	}
	if len(ps) > 0 {
		return ps[0].Description
	}
	return fmt.Sprintf("You have %d unreviewed notes. Pick one and review it today.", st.Unreviewed)
}

func generatorReason(err error) string {
	switch {
	case err == nil, errors.Is(err, generator.ErrEmptyResponse):
		return alerts.ReasonEmptyResponse
	case errors.Is(err, generator.ErrRateLimited):
		return alerts.ReasonRateLimited
	default:
		return alerts.ReasonGeneratorUnavailable
	}
}
