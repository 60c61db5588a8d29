package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recallhq/recall/pkg/api/events"
	"github.com/recallhq/recall/pkg/api/models"
	"github.com/recallhq/recall/pkg/api/response"
	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// MemoryHandler serves memory CRUD endpoints.
type MemoryHandler struct {
	store  storage.Store
	events EventSink
	logger Logger
	now    func() time.Time
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(store storage.Store, sink EventSink, log Logger) *MemoryHandler {
	return &MemoryHandler{
		store:  store,
		events: orNopSink(sink),
		logger: orNop(log),
		now:    time.Now,
	}
}

// Create handles POST /api/v1/users/{tag}/memories
// @Summary Add a memory
// @Description Store a new note in the user's memory collection
// @Tags memories
// @Accept json
// @Produce json
// @Param tag path string true "Container tag"
// @Param request body models.CreateMemoryRequest true "Memory"
// @Success 201 {object} memory.Record
// @Failure 400 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/memories [post]
func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMemoryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tag := containerTag(r)
	rec, err := h.store.Add(r.Context(), tag, req.Content, req.Metadata())
	if err != nil {
		h.logger.Error("failed to add memory", "container", tag, "error", err)
		writeError(w, r, err)
		return
	}

	h.events.MemoryChanged(events.TypeMemoryCreated, rec)
	response.JSON(w, http.StatusCreated, rec)
}

// List handles GET /api/v1/users/{tag}/memories
// @Summary List memories
// @Tags memories
// @Produce json
// @Param tag path string true "Container tag"
// @Param type query string false "Memory type"
// @Param subject query string false "Subject"
// @Param reviewed query bool false "Reviewed flag"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.MemoryListResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/memories [get]
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := h.store.List(r.Context(), containerTag(r), filter)
	if err != nil {
		h.logger.Error("failed to list memories", "container", containerTag(r), "error", err)
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*memory.Record{}
	}

	response.JSON(w, http.StatusOK, models.MemoryListResponse{
		Memories: records,
		Count:    len(records),
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

// Get handles GET /api/v1/users/{tag}/memories/{id}
// @Summary Get a memory
// @Tags memories
// @Produce json
// @Param tag path string true "Container tag"
// @Param id path string true "Memory ID"
// @Success 200 {object} memory.Record
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/memories/{id} [get]
func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(r.Context(), containerTag(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, rec)
}

// Update handles PATCH /api/v1/users/{tag}/memories/{id}
// @Summary Update a memory
// @Tags memories
// @Accept json
// @Produce json
// @Param tag path string true "Container tag"
// @Param id path string true "Memory ID"
// @Param request body models.UpdateMemoryRequest true "Changes"
// @Success 200 {object} memory.Record
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/memories/{id} [patch]
func (h *MemoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateMemoryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Empty() {
		writeError(w, r, fmt.Errorf("%w: no fields to update", response.ErrInvalidInput))
		return
	}

	ctx := r.Context()
	tag, id := containerTag(r), chi.URLParam(r, "id")
	current, err := h.store.Get(ctx, tag, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.store.Update(ctx, tag, id, req.Patch(current))
	if err != nil {
		h.logger.Error("failed to update memory", "container", tag, "memory_id", id, "error", err)
		writeError(w, r, err)
		return
	}

	h.events.MemoryChanged(events.TypeMemoryUpdated, rec)
	response.JSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /api/v1/users/{tag}/memories/{id}
// @Summary Delete a memory
// @Tags memories
// @Param tag path string true "Container tag"
// @Param id path string true "Memory ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/memories/{id} [delete]
func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tag, id := containerTag(r), chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), tag, id); err != nil {
		writeError(w, r, err)
		return
	}

	h.events.MemoryDeleted(tag, id)
	w.WriteHeader(http.StatusNoContent)
}

// Review handles POST /api/v1/users/{tag}/memories/{id}/review
// @Summary Mark a memory reviewed
// @Description Marks the memory reviewed now, or unreviewed with {"reviewed": false}
// @Tags memories
// @Accept json
// @Produce json
// @Param tag path string true "Container tag"
// @Param id path string true "Memory ID"
// @Param request body models.ReviewRequest false "Review flag"
// @Success 200 {object} memory.Record
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/users/{tag}/memories/{id}/review [post]
func (h *MemoryHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req models.ReviewRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	ctx := r.Context()
	tag, id := containerTag(r), chi.URLParam(r, "id")
	current, err := h.store.Get(ctx, tag, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	next := current.Clone()
	if req.Reviewed == nil || *req.Reviewed {
		next.MarkReviewed(h.now())
	} else {
		next.MarkUnreviewed()
	}

	rec, err := h.store.Update(ctx, tag, id, memory.Patch{Metadata: &next.Metadata})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.events.MemoryChanged(events.TypeMemoryUpdated, rec)
	response.JSON(w, http.StatusOK, rec)
}

func parseFilter(r *http.Request) (storage.Filter, error) {
	q := r.URL.Query()
	f := storage.Filter{Subject: q.Get("subject")}

	if t := q.Get("type"); t != "" {
		f.Type = memory.ParseType(t)
	}
	if raw := q.Get("reviewed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, fmt.Errorf("%w: reviewed must be true or false", response.ErrInvalidInput)
		}
		f.Reviewed = &v
	}

	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		return f, err
	}
	if limit == 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return f, err
	}
	f.Limit, f.Offset = limit, offset
	return f, nil
}
