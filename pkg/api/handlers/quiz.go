package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recallhq/recall/pkg/api/models"
	"github.com/recallhq/recall/pkg/api/response"
	"github.com/recallhq/recall/pkg/quiz"
)

// QuizHandler serves quiz endpoints.
type QuizHandler struct {
	service *quiz.Service
	events  EventSink
	logger  Logger
}

// NewQuizHandler creates a new quiz handler.
func NewQuizHandler(service *quiz.Service, sink EventSink, log Logger) *QuizHandler {
	return &QuizHandler{
		service: service,
		events:  orNopSink(sink),
		logger:  orNop(log),
	}
}

// Answer handles POST /api/v1/users/{tag}/quiz/{id}/answer
// @Summary Record a quiz answer
// @Description Folds one attempt into the memory's retention score
// @Tags quiz
// @Accept json
// @Produce json
// @Param tag path string true "Container tag"
// @Param id path string true "Memory ID"
// @Param request body models.AnswerRequest true "Answer"
// @Success 200 {object} quiz.Outcome
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/quiz/{id}/answer [post]
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tag, id := containerTag(r), chi.URLParam(r, "id")
	out, err := h.service.Answer(r.Context(), tag, id, *req.Correct)
	if err != nil {
		h.logger.Warn("quiz answer failed", "container", tag, "memory_id", id, "error", err)
		writeError(w, r, err)
		return
	}

	h.events.QuizAnswered(tag, out)
	response.JSON(w, http.StatusOK, out)
}

// Questions handles POST /api/v1/users/{tag}/quiz/questions
// @Summary Build practice questions
// @Description Questions target the weakest and unreviewed memories
// @Tags quiz
// @Accept json
// @Produce json
// @Param tag path string true "Container tag"
// @Param request body models.QuestionsRequest false "Batch size"
// @Success 200 {object} models.QuestionsResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/quiz/questions [post]
func (h *QuizHandler) Questions(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionsRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	questions, err := h.service.Questions(r.Context(), containerTag(r), req.Count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if questions == nil {
		questions = []quiz.Question{}
	}
	response.JSON(w, http.StatusOK, models.QuestionsResponse{Questions: questions})
}
