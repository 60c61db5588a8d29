package models

import (
	"github.com/recallhq/recall/pkg/patterns"
	"github.com/recallhq/recall/pkg/quiz"
	"github.com/recallhq/recall/pkg/relevance"
)

// AnswerRequest records one quiz attempt.
type AnswerRequest struct {
	// Correct must be present; a missing field is a validation error.
	Correct *bool `json:"correct" validate:"required"`
}

// QuestionsRequest asks for a batch of practice questions.
type QuestionsRequest struct {
	Count int `json:"count,omitempty" validate:"omitempty,min=1,max=20" example:"5"`
}

// QuestionsResponse is a batch of practice questions.
type QuestionsResponse struct {
	Questions []quiz.Question `json:"questions"`
}

// ChatRequest is one chat turn plus the preceding conversation.
type ChatRequest struct {
	Message string              `json:"message" validate:"required,max=4000" example:"what should I study today?"`
	History []relevance.Message `json:"history,omitempty" validate:"max=50"`
}

// SearchResponse lists relevance-ranked memories.
type SearchResponse struct {
	Query   string                   `json:"query"`
	Results []relevance.ScoredRecord `json:"results"`
}

// PatternsResponse lists detected patterns.
type PatternsResponse struct {
	Patterns []patterns.Pattern `json:"patterns"`
}
