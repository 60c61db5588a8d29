package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/recallhq/recall/pkg/api/response"
	"github.com/recallhq/recall/pkg/version"
)

const readyTimeout = 2 * time.Second

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

// StatusInfo describes the running process.
type StatusInfo struct {
	Storage   string
	Cache     string
	Generator string
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	info    StatusInfo
	ready   ReadyCheck
	ws      *WebSocketHandler
	started time.Time
}

// NewHealthHandler creates a new health handler. A nil ready check always
// reports ready; a nil websocket handler reports zero clients.
func NewHealthHandler(info StatusInfo, ready ReadyCheck, ws *WebSocketHandler) *HealthHandler {
	return &HealthHandler{
		info:    info,
		ready:   ready,
		ws:      ws,
		started: time.Now(),
	}
}

// Health handles the /health endpoint (liveness probe).
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready handles the /ready endpoint (readiness probe).
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			response.JSON(w, http.StatusServiceUnavailable, map[string]any{
				"ready": false,
				"error": err.Error(),
			})
			return
		}
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"ready": true,
	})
}

// Status handles the /status endpoint (detailed status).
// @Summary Process status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /status [get]
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if h.ws != nil {
		clients = h.ws.Count()
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"version":          version.Info(),
		"uptime":           time.Since(h.started).Round(time.Second).String(),
		"storage":          h.info.Storage,
		"cache":            h.info.Cache,
		"generator":        h.info.Generator,
		"websocketClients": clients,
	})
}
