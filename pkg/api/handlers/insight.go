package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/recallhq/recall/pkg/api/events"
	"github.com/recallhq/recall/pkg/api/models"
	"github.com/recallhq/recall/pkg/api/response"
	"github.com/recallhq/recall/pkg/insight"
	"github.com/recallhq/recall/pkg/patterns"
	"github.com/recallhq/recall/pkg/relevance"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// InsightHandler serves the derived views: alerts, patterns, dashboard,
// chat, search and digest.
type InsightHandler struct {
	service *insight.Service
	events  EventSink
	logger  Logger
}

// NewInsightHandler creates a new insight handler.
func NewInsightHandler(service *insight.Service, sink EventSink, log Logger) *InsightHandler {
	return &InsightHandler{
		service: service,
		events:  orNopSink(sink),
		logger:  orNop(log),
	}
}

// Alerts handles GET /api/v1/users/{tag}/alerts
// @Summary Get alerts
// @Description Rule-based alerts, or AI coaching with a rule fallback when mode=coach
// @Tags insight
// @Produce json
// @Param tag path string true "Container tag"
// @Param mode query string false "rules or coach" Enums(rules, coach)
// @Success 200 {object} alerts.Result
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/alerts [get]
func (h *InsightHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	mode := insight.ParseAlertMode(r.URL.Query().Get("mode"))
	res, err := h.service.Alerts(r.Context(), containerTag(r), mode)
	if err != nil {
		h.logger.Error("failed to build alerts", "container", containerTag(r), "error", err)
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

// Patterns handles GET /api/v1/users/{tag}/patterns
// @Summary Get learning patterns
// @Tags insight
// @Produce json
// @Param tag path string true "Container tag"
// @Success 200 {object} models.PatternsResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/patterns [get]
func (h *InsightHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	ps, err := h.service.Patterns(r.Context(), containerTag(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ps == nil {
		ps = []patterns.Pattern{}
	}
	response.JSON(w, http.StatusOK, models.PatternsResponse{Patterns: ps})
}

// Dashboard handles GET /api/v1/users/{tag}/dashboard
// @Summary Get the dashboard
// @Description Stats, coached alerts, patterns and a one-line insight
// @Tags insight
// @Produce json
// @Param tag path string true "Container tag"
// @Success 200 {object} insight.Dashboard
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/dashboard [get]
func (h *InsightHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context(), containerTag(r))
	if err != nil {
		h.logger.Error("failed to build dashboard", "container", containerTag(r), "error", err)
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, d)
}

// Chat handles POST /api/v1/users/{tag}/chat
// @Summary Chat with your memories
// @Description Messages starting with "remember" are saved as personal memories
// @Tags insight
// @Accept json
// @Produce json
// @Param tag path string true "Container tag"
// @Param request body models.ChatRequest true "Chat turn"
// @Success 200 {object} insight.ChatReply
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/chat [post]
func (h *InsightHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reply, err := h.service.Chat(r.Context(), containerTag(r), req.Message, req.History)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reply.Saved != nil {
		h.events.MemoryChanged(events.TypeMemoryCreated, reply.Saved)
	}
	if reply.Memories == nil {
		reply.Memories = []relevance.ScoredRecord{}
	}
	response.JSON(w, http.StatusOK, reply)
}

// Search handles GET /api/v1/users/{tag}/search
// @Summary Search memories
// @Description Relevance-ranked search over the user's memories
// @Tags insight
// @Produce json
// @Param tag path string true "Container tag"
// @Param q query string true "Query"
// @Param limit query int false "Maximum results"
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/search [get]
func (h *InsightHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, r, fmt.Errorf("%w: q is required", response.ErrInvalidInput))
		return
	}
	limit, err := queryInt(r, "limit", defaultSearchLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit == 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	results, err := h.service.Search(r.Context(), containerTag(r), q, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if results == nil {
		results = []relevance.ScoredRecord{}
	}
	response.JSON(w, http.StatusOK, models.SearchResponse{Query: q, Results: results})
}

// Digest handles GET /api/v1/users/{tag}/digest
// @Summary Get the weekly digest
// @Description JSON by default; format=text returns the plain-text body
// @Tags insight
// @Produce json,plain
// @Param tag path string true "Container tag"
// @Param format query string false "json or text" Enums(json, text)
// @Success 200 {object} insight.Digest
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/digest [get]
func (h *InsightHandler) Digest(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Digest(r.Context(), containerTag(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(d.Body))
		return
	}
	response.JSON(w, http.StatusOK, d)
}
