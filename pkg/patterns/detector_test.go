package patterns

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/pkg/memory"
)

var now = time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

func newTestDetector() *Detector {
	return NewDetector(WithClock(func() time.Time { return now }))
}

type opt func(*memory.Record)

func at(t time.Time) opt { return func(r *memory.Record) { r.CreatedAt = t; r.UpdatedAt = t } }

func study(subject string) opt {
	return func(r *memory.Record) {
		r.Metadata.Type = memory.TypeStudy
		r.Metadata.Subject = subject
	}
}

func quizzed(attempts, correct int) opt {
	return func(r *memory.Record) {
		r.Metadata.QuizAttempts = memory.Int(attempts)
		r.Metadata.CorrectAttempts = memory.Int(correct)
	}
}

func reviewedAt(t time.Time) opt {
	return func(r *memory.Record) {
		r.Metadata.Reviewed = true
		r.Metadata.LastReviewed = memory.Time(t)
		r.UpdatedAt = t
	}
}

var seq int

func rec(opts ...opt) *memory.Record {
	seq++
	r := &memory.Record{ID: fmt.Sprintf("m%d", seq), Content: "note", CreatedAt: now.Add(-60 * 24 * time.Hour)}
	r.UpdatedAt = r.CreatedAt
	for _, o := range opts {
		o(r)
	}
	r.Normalize()
	return r
}

func find(ps []Pattern, key string) (Pattern, bool) {
	for _, p := range ps {
		if p.Key == key {
			return p, true
		}
	}
	return Pattern{}, false
}

func TestDetect_Empty(t *testing.T) {
	assert.Empty(t, newTestDetector().Detect(nil))
}

func TestDetect_PeakTimeSuppressedBelowThreshold(t *testing.T) {
	var records []*memory.Record
	for i := 0; i < 4; i++ {
		records = append(records, rec(study("Math"), at(time.Date(2026, 3, 1, 8+i, 0, 0, 0, time.UTC))))
	}
	_, ok := find(newTestDetector().Detect(records), KeyPeakTime)
	assert.False(t, ok)
}

func TestDetect_PeakTime(t *testing.T) {
	var records []*memory.Record
	for i := 0; i < 4; i++ {
		records = append(records, rec(study("Math"), at(time.Date(2026, 3, 1+i, 23, 10, 0, 0, time.UTC)), quizzed(2, 1)))
	}
	records = append(records,
		rec(study("Math"), at(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)), quizzed(1, 1)),
		rec(study("Math"), at(time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC))),
	)

	ps := newTestDetector().Detect(records)
	peak, ok := find(ps, KeyPeakTime)
	require.True(t, ok)
	assert.Equal(t, TypeTime, peak.Type)
	assert.Equal(t, 23, peak.Data["hour"])
	assert.Contains(t, peak.Description, "23:00-01:00 (next day)")
	assert.Contains(t, peak.Description, "50%")
	assert.InDelta(t, 0.9, peak.Confidence, 1e-9) // min(0.9, 8/6)

	best, ok := find(ps, KeyBestRetention)
	require.True(t, ok)
	assert.Equal(t, TypePerformance, best.Type)
	assert.Equal(t, 9, best.Data["hour"])
	assert.InDelta(t, 0.2, best.Confidence, 1e-9)
}

func TestDetect_BestRetentionSameAsPeakIsSuppressed(t *testing.T) {
	var records []*memory.Record
	for i := 0; i < 6; i++ {
		records = append(records, rec(study("Math"), at(time.Date(2026, 3, 1+i, 10, 0, 0, 0, time.UTC)), quizzed(1, 1)))
	}
	ps := newTestDetector().Detect(records)
	_, ok := find(ps, KeyPeakTime)
	assert.True(t, ok)
	_, ok = find(ps, KeyBestRetention)
	assert.False(t, ok)
}

func TestDetect_ConsistencyAndStreak(t *testing.T) {
	day := func(offset int) time.Time { return now.AddDate(0, 0, -offset).Add(-time.Hour) }
	records := []*memory.Record{
		rec(at(day(0))), rec(at(day(1))), rec(at(day(2))),
		rec(at(day(4))), rec(at(day(9))),
	}

	p, ok := find(newTestDetector().Detect(records), KeyConsistency)
	require.True(t, ok)
	assert.Equal(t, 4, p.Data["activeDays"])
	assert.Equal(t, 3, p.Data["streak"])
	assert.Equal(t, "Active 4/7 days this week • 3 day streak 🔥", p.Description)
	assert.InDelta(t, 4.0/7, p.Confidence, 1e-9)
}

func TestDetect_StreakBreaksWhenTodayEmpty(t *testing.T) {
	records := []*memory.Record{rec(at(now.AddDate(0, 0, -1))), rec(at(now.AddDate(0, 0, -2)))}

	p, ok := find(newTestDetector().Detect(records), KeyConsistency)
	require.True(t, ok)
	assert.Equal(t, 0, p.Data["streak"])
	assert.Equal(t, "Active 2/7 days this week", p.Description)
}

func TestDetect_KnowledgeGapSuppressedBelowThreshold(t *testing.T) {
	records := []*memory.Record{rec(study("Docker")), rec(study("Docker"))}
	_, ok := find(newTestDetector().Detect(records), KeyKnowledgeGap)
	assert.False(t, ok)
}

func TestDetect_KnowledgeGapPicksWorstSubject(t *testing.T) {
	records := []*memory.Record{
		rec(study("Docker")), rec(study("Docker")), rec(study("docker"), reviewedAt(now.AddDate(0, 0, -20))),
		rec(study("Go"), quizzed(2, 0)), rec(study("Go")), rec(study("Go")),
	}

	p, ok := find(newTestDetector().Detect(records), KeyKnowledgeGap)
	require.True(t, ok)
	assert.Equal(t, "Go", p.Data["subject"])
	assert.Equal(t, "Knowledge gap: Go", p.Title)
	assert.InDelta(t, 0.8, p.Confidence, 1e-9)
}

func TestDetect_KnowledgeGapNeedsLowReviewRate(t *testing.T) {
	reviewed := reviewedAt(now.AddDate(0, 0, -20))
	records := []*memory.Record{rec(study("Go"), reviewed), rec(study("Go"), reviewed), rec(study("Go"))}
	_, ok := find(newTestDetector().Detect(records), KeyKnowledgeGap)
	assert.False(t, ok)
}

func TestDetect_RetentionTrend(t *testing.T) {
	old := reviewedAt(now.AddDate(0, 0, -90))
	recent := reviewedAt(now.AddDate(0, 0, -2))
	records := []*memory.Record{
		rec(quizzed(4, 1), old),
		rec(quizzed(4, 1), old),
		rec(quizzed(4, 4), recent),
		rec(quizzed(4, 2)), // not reviewed: ignored
	}

	p, ok := find(newTestDetector().Detect(records), KeyRetentionTrend)
	require.True(t, ok)
	assert.Equal(t, TrendImproving, p.Data["trend"])
	assert.Equal(t, "Retention improving", p.Title)
	assert.InDelta(t, 0.3, p.Confidence, 1e-9)
}

func TestDetect_RetentionTrendStableWithoutRecent(t *testing.T) {
	records := []*memory.Record{rec(quizzed(2, 1), reviewedAt(now.AddDate(0, 0, -90)))}
	p, ok := find(newTestDetector().Detect(records), KeyRetentionTrend)
	require.True(t, ok)
	assert.Equal(t, TrendStable, p.Data["trend"])
}

func TestDetect_ReviewHabit(t *testing.T) {
	records := []*memory.Record{
		rec(reviewedAt(now.AddDate(0, 0, -1))),
		rec(reviewedAt(now.AddDate(0, 0, -3))),
		rec(reviewedAt(now.AddDate(0, 0, -30))),
	}
	p, ok := find(newTestDetector().Detect(records), KeyReviewHabit)
	require.True(t, ok)
	assert.Equal(t, 2, p.Data["reviewedThisWeek"])
	assert.InDelta(t, 0.7, p.Confidence, 1e-9)

	_, ok = find(newTestDetector().Detect(records[2:]), KeyReviewHabit)
	assert.False(t, ok)
}

func TestDetect_ConfidenceBounds(t *testing.T) {
	inputs := [][]*memory.Record{
		nil,
		{rec()},
		{rec(study("X"), quizzed(1, 1), reviewedAt(now))},
	}
	var many []*memory.Record
	for i := 0; i < 40; i++ {
		many = append(many, rec(study("S"), at(now.Add(-time.Duration(i)*time.Hour)), quizzed(i+1, i/2)))
	}
	inputs = append(inputs, many)

	for _, in := range inputs {
		for _, p := range newTestDetector().Detect(in) {
			assert.GreaterOrEqual(t, p.Confidence, 0.0, p.Key)
			assert.LessOrEqual(t, p.Confidence, 1.0, p.Key)
		}
	}
}

func TestDetect_DoesNotMutateInput(t *testing.T) {
	r := rec(study("Go"), quizzed(2, 1))
	before := *r
	newTestDetector().Detect([]*memory.Record{r})
	assert.Equal(t, before.Metadata.Subject, r.Metadata.Subject)
	assert.Equal(t, before.UpdatedAt, r.UpdatedAt)
}

func TestHourWindow(t *testing.T) {
	assert.Equal(t, "09:00-11:00", hourWindow(9))
	assert.Equal(t, "22:00-00:00 (next day)", hourWindow(22))
}
