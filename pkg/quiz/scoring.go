// Package quiz records quiz attempts against memories and builds quiz
// questions from their content.
package quiz

import (
	"time"

	"github.com/recallhq/recall/pkg/memory"
)

// Outcome is the retention state after an attempt.
type Outcome struct {
	MemoryID        string    `json:"memoryId"`
	Correct         bool      `json:"correct"`
	RetentionScore  float64   `json:"retentionScore"`
	QuizAttempts    int       `json:"quizAttempts"`
	CorrectAttempts int       `json:"correctAttempts"`
	LastQuizzed     time.Time `json:"lastQuizzed"`
}

// RecordAttempt returns a copy of r with one more attempt folded into its
// cumulative average. Every attempt weighs the same regardless of age. The
// copy is marked reviewed at now.
func RecordAttempt(r *memory.Record, correct bool, now time.Time) *memory.Record {
	out := r.Clone()
	md := &out.Metadata

	attempts, hits := 0, 0
	if md.QuizAttempts != nil {
		attempts = *md.QuizAttempts
	}
	if md.CorrectAttempts != nil {
		hits = *md.CorrectAttempts
	}
	attempts++
	if correct {
		hits++
	}

	md.QuizAttempts = memory.Int(attempts)
	md.CorrectAttempts = memory.Int(hits)
	md.RetentionScore = memory.Float(float64(hits) / float64(attempts))
	out.MarkReviewed(now)
	md.LastQuizzed = memory.Time(*md.LastReviewed)
	return out
}

func outcomeOf(r *memory.Record, correct bool) Outcome {
	o := Outcome{MemoryID: r.ID, Correct: correct}
	if v, ok := r.Retention(); ok {
		o.RetentionScore = v
	}
	if r.Metadata.QuizAttempts != nil {
		o.QuizAttempts = *r.Metadata.QuizAttempts
	}
	if r.Metadata.CorrectAttempts != nil {
		o.CorrectAttempts = *r.Metadata.CorrectAttempts
	}
	if r.Metadata.LastQuizzed != nil {
		o.LastQuizzed = *r.Metadata.LastQuizzed
	}
	return o
}
