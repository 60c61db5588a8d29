package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		input string
		want  Type
	}{
		{"study", TypeStudy},
		{"Interview", TypeInterview},
		{" meeting ", TypeMeeting},
		{"personal", TypePersonal},
		{"", TypePersonal},
		{"grocery", TypePersonal},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseType(tt.input))
		})
	}
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityHigh, ParsePriority("HIGH"))
	assert.Equal(t, PriorityLow, ParsePriority("low"))
	assert.Equal(t, PriorityMedium, ParsePriority("urgent"))
	assert.Equal(t, PriorityMedium, ParsePriority(""))
}

func TestRecord_Normalize(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("defaults", func(t *testing.T) {
		r := &Record{ID: "m1", Content: "  notes  ", CreatedAt: created}
		r.Normalize()

		assert.Equal(t, "notes", r.Content)
		assert.Equal(t, TypePersonal, r.Metadata.Type)
		assert.Equal(t, PriorityMedium, r.Metadata.Priority)
		assert.Equal(t, created, r.Metadata.Date)
		assert.Equal(t, created, r.UpdatedAt)
	})

	t.Run("reviewed implies last reviewed", func(t *testing.T) {
		r := &Record{ID: "m1", CreatedAt: created, UpdatedAt: created.Add(time.Hour)}
		r.Metadata.Reviewed = true
		r.Normalize()

		require.NotNil(t, r.Metadata.LastReviewed)
		assert.False(t, r.Metadata.LastReviewed.Before(created))
	})

	t.Run("retention recomputed from counters", func(t *testing.T) {
		r := &Record{ID: "m1", CreatedAt: created}
		r.Metadata.QuizAttempts = Int(4)
		r.Metadata.CorrectAttempts = Int(3)
		r.Metadata.RetentionScore = Float(0.1)
		r.Normalize()

		require.NotNil(t, r.Metadata.RetentionScore)
		assert.InDelta(t, 0.75, *r.Metadata.RetentionScore, 1e-9)
	})

	t.Run("zero attempts clears retention", func(t *testing.T) {
		r := &Record{ID: "m1", CreatedAt: created}
		r.Metadata.QuizAttempts = Int(0)
		r.Metadata.RetentionScore = Float(1)
		r.Normalize()

		assert.Nil(t, r.Metadata.RetentionScore)
		assert.Nil(t, r.Metadata.QuizAttempts)
	})
}

func TestRecord_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Record{CreatedAt: time.Now()}).Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, (&Record{ID: "x"}).Validate(), ErrInvalidRecord)
	assert.NoError(t, (&Record{ID: "x", CreatedAt: time.Now()}).Validate())

	assert.ErrorIs(t, ValidateContent("   "), ErrInvalidRecord)
	assert.NoError(t, ValidateContent("hello"))
}

func TestRecord_MarkReviewed(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := &Record{ID: "m1", CreatedAt: created}

	r.MarkReviewed(created.Add(-time.Hour))
	require.NotNil(t, r.Metadata.LastReviewed)
	assert.True(t, r.Metadata.Reviewed)
	assert.Equal(t, created, *r.Metadata.LastReviewed)

	r.MarkUnreviewed()
	assert.False(t, r.Metadata.Reviewed)
	assert.NotNil(t, r.Metadata.LastReviewed)
}

func TestRecord_CloneIsDeep(t *testing.T) {
	r := &Record{ID: "m1", CreatedAt: time.Now()}
	r.Metadata.QuizAttempts = Int(2)
	r.Metadata.Tags = []string{"a"}

	c := r.Clone()
	*c.Metadata.QuizAttempts = 5
	c.Metadata.Tags[0] = "b"

	assert.Equal(t, 2, *r.Metadata.QuizAttempts)
	assert.Equal(t, "a", r.Metadata.Tags[0])
}

func TestRecord_Apply(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := &Record{ID: "m1", Content: "old", CreatedAt: created}
	r.Normalize()

	content := "new"
	md := Metadata{Type: "study", Subject: "Go", Priority: "high"}
	now := created.Add(2 * time.Hour)
	r.Apply(Patch{Content: &content, Metadata: &md}, now)

	assert.Equal(t, "new", r.Content)
	assert.Equal(t, TypeStudy, r.Metadata.Type)
	assert.Equal(t, PriorityHigh, r.Metadata.Priority)
	assert.Equal(t, now, r.UpdatedAt)
	assert.Equal(t, created, r.CreatedAt)
}
