package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/recallhq/recall/pkg/cache"
	"github.com/recallhq/recall/pkg/generator"
	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/patterns"
)

// Source tells where a set of alerts came from.
type Source string

const (
	SourceAI    Source = "ai"
	SourceCache Source = "cache"
	SourceRules Source = "rules"
)

// Fallback reasons reported on degraded results.
const (
	ReasonGeneratorUnavailable = "generator_unavailable"
	ReasonRateLimited          = "rate_limited"
	ReasonInvalidResponse      = "invalid_response"
	ReasonEmptyResponse        = "empty_response"
)

// DefaultCacheTTL is how long coached alerts are reused.
const DefaultCacheTTL = 10 * time.Minute

const (
	defaultTitle    = "Action needed"
	defaultPriority = 5
	promptMaxItems  = 30
	coachMaxTokens  = 1024
	coachTemp       = 0.7
)

const coachSystemPrompt = `You are a study and productivity coach. You receive a user's unreviewed notes and a few observed habits.
Write 3 to 5 short, specific alerts that tell the user what to do next. Reference deadlines, priorities and weak spots.
Reply with a JSON array only. Each element: {"id": string, "type": "urgent"|"warning"|"info", "title": string,
"message": string, "memoryIds": [string], "priority": 1-10, "action": string}.`

// Result is the outcome of a coaching run.
type Result struct {
	Alerts         []Alert `json:"alerts"`
	Source         Source  `json:"source"`
	Degraded       bool    `json:"degraded"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
}

type coachLogger interface {
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

// Coach phrases alerts through a generator and falls back to Rules.
type Coach struct {
	gen      generator.Generator
	cache    cache.Cache
	rules    *Rules
	detector *patterns.Detector
	logger   coachLogger
	ttl      time.Duration
}

// CoachOption configures a Coach.
type CoachOption func(*Coach)

// WithCache sets the coaching cache. Nil keeps the no-op cache.
func WithCache(c cache.Cache) CoachOption {
	return func(co *Coach) {
		if c != nil {
			co.cache = c
		}
	}
}

// WithCacheTTL sets how long coached alerts are cached.
func WithCacheTTL(ttl time.Duration) CoachOption {
	return func(co *Coach) {
		if ttl > 0 {
			co.ttl = ttl
		}
	}
}

// WithRules sets the fallback rule engine. Its clock is also used for prompts.
func WithRules(r *Rules) CoachOption {
	return func(co *Coach) {
		if r != nil {
			co.rules = r
		}
	}
}

// WithDetector sets the pattern detector used for prompt context.
func WithDetector(d *patterns.Detector) CoachOption {
	return func(co *Coach) {
		co.detector = d
	}
}

// WithLogger sets the logger.
func WithLogger(l coachLogger) CoachOption {
	return func(co *Coach) {
		if l != nil {
			co.logger = l
		}
	}
}

// NewCoach creates a Coach. A nil generator behaves as generator.Unavailable.
func NewCoach(gen generator.Generator, opts ...CoachOption) *Coach {
	if gen == nil {
		gen = generator.Unavailable{}
	}
	c := &Coach{
		gen:    gen,
		cache:  cache.Nop{},
		rules:  NewRules(),
		logger: nopLogger{},
		ttl:    DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rules returns the fallback rule engine.
func (c *Coach) Rules() *Rules {
	return c.rules
}

// Alerts returns coached alerts for the records of one container. Only
// unreviewed records are sent to the generator. It never fails: any
// generator or parse error yields the rule-based alerts marked degraded.
func (c *Coach) Alerts(ctx context.Context, tag string, records []*memory.Record) Result {
	ctx, span := otel.Tracer("recall/alerts").Start(ctx, "alerts.Coach.Alerts")
	defer span.End()

	unreviewed := make([]*memory.Record, 0, len(records))
	for _, m := range records {
		if m != nil && !m.Metadata.Reviewed {
			unreviewed = append(unreviewed, m)
		}
	}
	span.SetAttributes(attribute.Int("alerts.unreviewed", len(unreviewed)))

	if len(unreviewed) == 0 {
		out := c.rules.Generate(records)
		recordAlerts(SourceRules, out)
		return Result{Alerts: out, Source: SourceRules}
	}

	key := cacheKey(tag, unreviewed)
	if raw, ok := c.cache.Get(ctx, key); ok {
		var cached []Alert
		if err := json.Unmarshal(raw, &cached); err == nil && len(cached) > 0 {
			metricsRecorder().RecordCoachCache("hit")
			recordAlerts(SourceCache, cached)
			return Result{Alerts: cached, Source: SourceCache}
		}
		c.logger.Warn("discarding unreadable coaching cache entry", "key", key)
	}
	metricsRecorder().RecordCoachCache("miss")

	req := generator.Prompt(coachSystemPrompt, c.prompt(unreviewed), coachMaxTokens, coachTemp)
	text, err := c.gen.Complete(ctx, req)
	if err != nil {
		return c.fallback(records, reasonFor(err), err)
	}
	if strings.TrimSpace(text) == "" {
		return c.fallback(records, ReasonEmptyResponse, generator.ErrEmptyResponse)
	}

	out, err := ParseAlerts(text, unreviewed)
	if err != nil {
		return c.fallback(records, ReasonInvalidResponse, err)
	}
	out = Rank(out, c.rules.thresholds.MaxAlerts)

	if raw, err := json.Marshal(out); err == nil {
		c.cache.Put(ctx, key, raw, c.ttl)
	}
	recordAlerts(SourceAI, out)
	c.logger.Debug("coached alerts generated", "container", tag, "count", len(out))
	return Result{Alerts: out, Source: SourceAI}
}

func (c *Coach) fallback(records []*memory.Record, reason string, err error) Result {
	c.logger.Warn("coaching unavailable, using rule-based alerts", "reason", reason, "error", err)
	metricsRecorder().RecordFallback("alerts", reason)
	out := c.rules.Generate(records)
	recordAlerts(SourceRules, out)
	return Result{Alerts: out, Source: SourceRules, Degraded: true, FallbackReason: reason}
}

// prompt describes only unreviewed records. Habits are detected over the
// same subset so reviewed notes never reach the generator.
func (c *Coach) prompt(unreviewed []*memory.Record) string {
	now := c.rules.now()
	var b strings.Builder
	fmt.Fprintf(&b, "Today is %s.\n\nUnreviewed notes (%d):\n", now.Format("Monday, 2006-01-02"), len(unreviewed))
	for i, m := range unreviewed {
		if i == promptMaxItems {
			fmt.Fprintf(&b, "... and %d more\n", len(unreviewed)-promptMaxItems)
			break
		}
		fmt.Fprintf(&b, "- id=%s type=%s priority=%s created=%s", m.ID, m.Metadata.Type, m.Metadata.Priority,
			m.CreatedAt.In(now.Location()).Format("2006-01-02"))
		if m.Metadata.Subject != "" {
			fmt.Fprintf(&b, " subject=%q", m.Metadata.Subject)
		}
		if m.Metadata.Company != "" {
			fmt.Fprintf(&b, " company=%q", m.Metadata.Company)
		}
		if m.Metadata.Deadline != nil {
			fmt.Fprintf(&b, " deadline=%s", m.Metadata.Deadline.In(now.Location()).Format("2006-01-02"))
		}
		if v, ok := m.Retention(); ok {
			fmt.Fprintf(&b, " retention=%.0f%%", v*100)
		}
		fmt.Fprintf(&b, "\n  %s\n", truncate(m.Content, 200))
	}

	if c.detector != nil {
		if ps := c.detector.Detect(unreviewed); len(ps) > 0 {
			b.WriteString("\nObserved habits:\n")
			for _, p := range ps {
				fmt.Fprintf(&b, "- %s: %s\n", p.Title, p.Description)
			}
		}
	}
	return b.String()
}

// ParseAlerts extracts the JSON array between the first '[' and the last ']'
// of text and normalizes each element. Memory ids not present in known are
// dropped.
func ParseAlerts(text string, known []*memory.Record) ([]Alert, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, errors.New("alerts: no JSON array in response")
	}
	payload := text[start : end+1]
	if !gjson.Valid(payload) {
		return nil, errors.New("alerts: malformed JSON array in response")
	}

	ids := make(map[string]bool, len(known))
	for _, m := range known {
		ids[m.ID] = true
	}

	var out []Alert
	gjson.Parse(payload).ForEach(func(_, v gjson.Result) bool {
		if !v.IsObject() {
			return true
		}
		out = append(out, normalize(v, len(out), ids))
		return true
	})
	if len(out) == 0 {
		return nil, errors.New("alerts: response contained no alerts")
	}
	return out, nil
}

func normalize(v gjson.Result, i int, known map[string]bool) Alert {
	a := Alert{
		ID:        strings.TrimSpace(v.Get("id").String()),
		Type:      ParseType(strings.ToLower(strings.TrimSpace(v.Get("type").String()))),
		Title:     strings.TrimSpace(v.Get("title").String()),
		Message:   strings.TrimSpace(firstString(v, "message", "description")),
		Action:    strings.TrimSpace(v.Get("action").String()),
		MemoryIDs: []string{},
		Priority:  defaultPriority,
	}
	if a.ID == "" {
		a.ID = fmt.Sprintf("ai-%d", i+1)
	}
	if a.Title == "" {
		a.Title = defaultTitle
	}
	if p := v.Get("priority"); p.Exists() && isNumeric(p) {
		a.Priority = clampPriority(int(p.Int()))
	}

	seen := make(map[string]bool)
	for _, id := range v.Get("memoryIds").Array() {
		s := id.String()
		if known[s] && !seen[s] {
			seen[s] = true
			a.MemoryIDs = append(a.MemoryIDs, s)
		}
	}
	return a
}

func firstString(v gjson.Result, paths ...string) string {
	for _, p := range paths {
		if r := v.Get(p); r.Exists() && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

func isNumeric(r gjson.Result) bool {
	switch r.Type {
	case gjson.Number:
		return true
	case gjson.String:
		s := strings.TrimSpace(r.String())
		if s == "" {
			return false
		}
		for _, ch := range s {
			if (ch < '0' || ch > '9') && ch != '-' {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func clampPriority(p int) int {
	switch {
	case p < 1:
		return 1
	case p > 10:
		return 10
	default:
		return p
	}
}

// cacheKey fingerprints the unreviewed set by size and first id.
func cacheKey(tag string, unreviewed []*memory.Record) string {
	return fmt.Sprintf("coach:%s:%d:%s", tag, len(unreviewed), unreviewed[0].ID)
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, generator.ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, generator.ErrEmptyResponse):
		return ReasonEmptyResponse
	default:
		return ReasonGeneratorUnavailable
	}
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
