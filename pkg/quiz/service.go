package quiz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/recallhq/recall/pkg/generator"
	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/storage"
)

const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 20
	defaultConcurrency   = 4
)

const questionSystemPrompt = `You write one multiple-choice quiz question that checks whether the user remembers a note.
Reply with a single JSON object only: {"question": string, "options": [4 strings], "answerIndex": 0-3, "explanation": string}.`

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

// Service records attempts and builds question batches for one store.
type Service struct {
	store       storage.Store
	gen         generator.Generator
	logger      serviceLogger
	now         func() time.Time
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithGenerator sets the question generator. Nil means fallback questions only.
func WithGenerator(g generator.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.gen = g
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l serviceLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithConcurrency bounds parallel generator calls in Questions.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a quiz service over store.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		gen:         generator.Unavailable{},
		logger:      nopLogger{},
		now:         time.Now,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer records one attempt. An unknown id yields memory.ErrNotFound and
// nothing is written. Concurrent answers for the same memory are not
// serialized; the last write wins.
func (s *Service) Answer(ctx context.Context, containerTag, id string, correct bool) (Outcome, error) {
	ctx, span := otel.Tracer("recall/quiz").Start(ctx, "quiz.Service.Answer")
	defer span.End()

	current, err := s.store.Get(ctx, containerTag, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("load memory %s: %w", id, err)
	}

	next := RecordAttempt(current, correct, s.now())
	saved, err := s.store.Update(ctx, containerTag, id, memory.Patch{Metadata: &next.Metadata})
	if err != nil {
		return Outcome{}, fmt.Errorf("save quiz attempt for %s: %w", id, err)
	}

	label := "incorrect"
	if correct {
		label = "correct"
	}
	metricsRecorder().RecordQuizAttempt(label)
	out := outcomeOf(saved, correct)
	span.SetAttributes(attribute.Float64("quiz.retention", out.RetentionScore))
	s.logger.Debug("quiz attempt recorded", "container", containerTag, "memory_id", id,
		"correct", correct, "retention", out.RetentionScore)
	return out, nil
}

// Questions builds up to count questions for the memories most in need of
// practice. A failed generation never aborts the batch: that item gets a
// fallback question instead.
func (s *Service) Questions(ctx context.Context, containerTag string, count int) ([]Question, error) {
	ctx, span := otel.Tracer("recall/quiz").Start(ctx, "quiz.Service.Questions")
	defer span.End()

	switch {
	case count <= 0:
		count = DefaultQuestionCount
	case count > MaxQuestionCount:
		count = MaxQuestionCount
	}

	records, err := s.store.List(ctx, containerTag, storage.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	picked := PickForPractice(records, count)
	out := make([]Question, len(picked))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, r := range picked {
		g.Go(func() error {
			out[i] = s.question(gctx, r)
			return nil
		})
	}
	_ = g.Wait()

	return out, nil
}

func (s *Service) question(ctx context.Context, r *memory.Record) Question {
	prompt := fmt.Sprintf("Note (type %s", r.Metadata.Type)
	if r.Metadata.Subject != "" {
		prompt += ", subject " + r.Metadata.Subject
	}
	prompt += "):\n" + r.Content

	text, err := s.gen.Complete(ctx, generator.Prompt(questionSystemPrompt, prompt, 400, 0.5))
	if err == nil {
		q, perr := parseQuestion(text, r)
		if perr == nil {
			return q
		}
		err = perr
	}

	reason := "generator_unavailable"
	switch {
	case errors.Is(err, errInvalidQuestion):
		reason = "invalid_response"
	case errors.Is(err, generator.ErrRateLimited):
		reason = "rate_limited"
	}
	metricsRecorder().RecordFallback("quiz", reason)
	s.logger.Debug("using fallback quiz question", "memory_id", r.ID, "error", err)
	return Fallback(r)
}

// PickForPractice orders records for practice: unreviewed first, then lowest
// retention, then unscored, then newest. At most n are returned.
func PickForPractice(records []*memory.Record, n int) []*memory.Record {
	candidates := make([]*memory.Record, 0, len(records))
	for _, r := range records {
		if r != nil && strings.TrimSpace(r.Content) != "" {
			candidates = append(candidates, r)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Metadata.Reviewed != b.Metadata.Reviewed {
			return !a.Metadata.Reviewed
		}
		ra, oka := a.Retention()
		rb, okb := b.Retention()
		if oka != okb {
			return oka
		}
		if oka && ra != rb {
			return ra < rb
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}
