package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/pkg/generator"
	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/storage"
	memstore "github.com/recallhq/recall/pkg/storage/memory"
)

var now = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func seed(t *testing.T, records ...*memory.Record) *memstore.Store {
	t.Helper()
	s := memstore.New(memstore.WithClock(clock))
	require.NoError(t, s.Seed(records...))
	return s
}

func note(id, content string) *memory.Record {
	return &memory.Record{
		ID:           id,
		ContainerTag: "user-1",
		Content:      content,
		CreatedAt:    now.Add(-48 * time.Hour),
	}
}

type countingStore struct {
	storage.Store
	updates atomic.Int32
}

func (s *countingStore) Update(ctx context.Context, tag, id string, p memory.Patch) (*memory.Record, error) {
	s.updates.Add(1)
	return s.Store.Update(ctx, tag, id, p)
}

type fakeMetrics struct {
	mu        sync.Mutex
	attempts  []string
	fallbacks []string
}

func (m *fakeMetrics) RecordQuizAttempt(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, outcome)
}

func (m *fakeMetrics) RecordFallback(surface, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks = append(m.fallbacks, surface+":"+reason)
}

func TestRecordAttempt_Accumulates(t *testing.T) {
	r := note("m", "content")
	r.Normalize()

	r = RecordAttempt(r, true, now)
	r = RecordAttempt(r, false, now)

	require.NotNil(t, r.Metadata.QuizAttempts)
	assert.Equal(t, 2, *r.Metadata.QuizAttempts)
	assert.Equal(t, 1, *r.Metadata.CorrectAttempts)
	assert.InDelta(t, 0.5, *r.Metadata.RetentionScore, 1e-9)
	assert.True(t, r.Metadata.Reviewed)
	assert.Equal(t, now, *r.Metadata.LastReviewed)
	assert.Equal(t, now, *r.Metadata.LastQuizzed)
}

func TestRecordAttempt_DoesNotMutateInput(t *testing.T) {
	r := note("m", "content")
	r.Normalize()
	RecordAttempt(r, true, now)
	assert.Nil(t, r.Metadata.QuizAttempts)
	assert.False(t, r.Metadata.Reviewed)
}

func TestRecordAttempt_ReplayIsDeterministic(t *testing.T) {
	seq := []bool{true, true, false, true, false, false, true}
	replay := func() *memory.Record {
		r := note("m", "content")
		r.Normalize()
		for _, c := range seq {
			r = RecordAttempt(r, c, now)
		}
		return r
	}

	a, b := replay(), replay()
	assert.Equal(t, a, b)
	assert.Equal(t, 7, *a.Metadata.QuizAttempts)
	assert.Equal(t, 4, *a.Metadata.CorrectAttempts)
	assert.InDelta(t, 4.0/7, *a.Metadata.RetentionScore, 1e-9)
}

func TestRecordAttempt_CumulativeNotDecayed(t *testing.T) {
	r := note("m", "content")
	r.Normalize()
	for i := 0; i < 20; i++ {
		r = RecordAttempt(r, true, now.AddDate(0, 0, -100+i))
	}
	r = RecordAttempt(r, false, now)
	assert.InDelta(t, 20.0/21, *r.Metadata.RetentionScore, 1e-9)
}

func TestService_Answer(t *testing.T) {
	m := &fakeMetrics{}
	SetMetricsRecorder(m)
	t.Cleanup(func() { SetMetricsRecorder(nil) })

	store := seed(t, note("m1", "Raft elects a leader per term."))
	svc := NewService(store, WithClock(clock))
	ctx := context.Background()

	out, err := svc.Answer(ctx, "user-1", "m1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, out.QuizAttempts)
	assert.InDelta(t, 1.0, out.RetentionScore, 1e-9)

	out, err = svc.Answer(ctx, "user-1", "m1", false)
	require.NoError(t, err)
	assert.Equal(t, "m1", out.MemoryID)
	assert.Equal(t, 2, out.QuizAttempts)
	assert.Equal(t, 1, out.CorrectAttempts)
	assert.InDelta(t, 0.5, out.RetentionScore, 1e-9)
	assert.Equal(t, now, out.LastQuizzed)

	stored, err := store.Get(ctx, "user-1", "m1")
	require.NoError(t, err)
	assert.True(t, stored.Metadata.Reviewed)
	assert.InDelta(t, 0.5, *stored.Metadata.RetentionScore, 1e-9)
	assert.Equal(t, []string{"correct", "incorrect"}, m.attempts)
}

func TestService_AnswerNotFound(t *testing.T) {
	store := &countingStore{Store: seed(t, note("m1", "x"))}
	svc := NewService(store, WithClock(clock))

	_, err := svc.Answer(context.Background(), "user-1", "missing", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, memory.ErrNotFound)
	assert.Equal(t, int32(0), store.updates.Load())

	_, err = svc.Answer(context.Background(), "user-2", "m1", true)
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestService_QuestionsFromGenerator(t *testing.T) {
	store := seed(t, note("m1", "Raft elects a leader per term."), note("m2", "Paxos uses proposers and acceptors."))
	gen := generator.Func(func(_ context.Context, req generator.Request) (string, error) {
		return `Sure: {"question": "Q?", "options": ["a", "b", "c", "d"], "answerIndex": 2, "explanation": "because"}`, nil
	})
	svc := NewService(store, WithGenerator(gen), WithClock(clock))

	qs, err := svc.Questions(context.Background(), "user-1", 5)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	for _, q := range qs {
		assert.Equal(t, SourceAI, q.Source)
		assert.Equal(t, 2, q.AnswerIndex)
		assert.Len(t, q.Options, 4)
	}
}

func TestService_QuestionsPartialFailure(t *testing.T) {
	m := &fakeMetrics{}
	SetMetricsRecorder(m)
	t.Cleanup(func() { SetMetricsRecorder(nil) })

	store := seed(t,
		note("good", "Kubernetes schedules pods onto nodes."),
		note("bad", "Terraform keeps infrastructure state remotely."),
		note("junk", "Prometheus scrapes metrics endpoints periodically."),
	)
	gen := generator.Func(func(_ context.Context, req generator.Request) (string, error) {
		content := req.Messages[0].Content
		switch {
		case strings.Contains(content, "Terraform"):
			return "", errors.New("network down")
		case strings.Contains(content, "Prometheus"):
			return "not json", nil
		default:
			return `{"question": "Q?", "options": ["x", "y"], "answerIndex": 0}`, nil
		}
	})
	svc := NewService(store, WithGenerator(gen), WithClock(clock), WithConcurrency(2))

	qs, err := svc.Questions(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	sources := map[string]QuestionSource{}
	for _, q := range qs {
		sources[q.MemoryID] = q.Source
	}
	assert.Equal(t, SourceAI, sources["good"])
	assert.Equal(t, SourceFallback, sources["bad"])
	assert.Equal(t, SourceFallback, sources["junk"])
	assert.ElementsMatch(t, []string{"quiz:generator_unavailable", "quiz:invalid_response"}, m.fallbacks)
}

func TestService_QuestionsWithoutGenerator(t *testing.T) {
	store := seed(t, note("m1", "Raft elects a leader per term."))
	qs, err := NewService(store).Questions(context.Background(), "user-1", 3)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, SourceFallback, qs[0].Source)
}

func TestService_QuestionsStoreFailure(t *testing.T) {
	_, err := NewService(seed(t)).Questions(context.Background(), "", 3)
	assert.ErrorIs(t, err, storage.ErrInvalidContainer)
}

func TestPickForPractice(t *testing.T) {
	mk := func(id string, reviewed bool, attempts, correct int, ageHours int) *memory.Record {
		r := note(id, "text "+id)
		r.CreatedAt = now.Add(-time.Duration(ageHours) * time.Hour)
		r.Metadata.Reviewed = reviewed
		if attempts > 0 {
			r.Metadata.QuizAttempts = memory.Int(attempts)
			r.Metadata.CorrectAttempts = memory.Int(correct)
		}
		r.Normalize()
		return r
	}
	records := []*memory.Record{
		mk("strong", true, 4, 4, 1),
		mk("unscored-old", true, 0, 0, 50),
		mk("weak", true, 4, 1, 2),
		mk("open", false, 0, 0, 3),
		mk("unscored-new", true, 0, 0, 5),
	}

	got := PickForPractice(records, 4)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"open", "weak", "strong", "unscored-new"}, ids)
}

func TestFallback_Cloze(t *testing.T) {
	q := Fallback(note("m", "Raft elects a leader per term. Followers replicate the log."))

	assert.Equal(t, SourceFallback, q.Source)
	assert.Equal(t, "Fill in the blank: Raft _____ a leader per term", q.Prompt)
	require.GreaterOrEqual(t, len(q.Options), 2)
	assert.Equal(t, "elects", q.Options[q.AnswerIndex])
	assert.LessOrEqual(t, len(q.Options), 4)
}

func TestFallback_SelfCheck(t *testing.T) {
	q := Fallback(note("m", "Call mom"))
	assert.Equal(t, []string{OptionRemember, OptionReview}, q.Options)
	assert.Equal(t, 0, q.AnswerIndex)
	assert.Contains(t, q.Prompt, "Call mom")
}

func TestParseQuestion_Rejects(t *testing.T) {
	r := note("m", "x")
	bad := []string{
		"",
		`{"question": "", "options": ["a", "b"], "answerIndex": 0}`,
		`{"question": "Q", "options": ["a"], "answerIndex": 0}`,
		`{"question": "Q", "options": ["a", "b"], "answerIndex": 2}`,
		`{"question": "Q", "options": ["a", "b"]}`,
		`{"question": }`,
	}
	for i, text := range bad {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := parseQuestion(text, r)
			assert.ErrorIs(t, err, errInvalidQuestion)
		})
	}
}
