// Package api provides HTTP API server components.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/pkg/api/handlers"
	"github.com/recallhq/recall/pkg/api/middleware"
	"github.com/recallhq/recall/pkg/api/response"
	"github.com/recallhq/recall/pkg/logger"

	_ "github.com/recallhq/recall/docs/swagger" // registers the OpenAPI document
)

// Handlers holds all HTTP handlers. Nil handlers leave their routes unmounted.
type Handlers struct {
	Memory  *handlers.MemoryHandler
	Quiz    *handlers.QuizHandler
	Insight *handlers.InsightHandler
	Health  *handlers.HealthHandler

	// WebSocket serves /ws/events.
	WebSocket *handlers.WebSocketHandler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
//
// The websocket endpoint sits outside the group that wraps the response
// writer, since the upgrade needs the raw connection.
func NewRouter(cfg *config.Config, log logger.Logger, h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))

	if h.WebSocket != nil && cfg.WebSocket.Enabled {
		r.Handle("/ws/events", h.WebSocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger(log))
		if h.Metrics != nil {
			r.Use(middleware.Metrics(h.Metrics))
		}
		r.Use(middleware.Tracing(middleware.DefaultTracingOptions()))
		r.Use(middleware.CORS(&cfg.Server.CORS))
		r.Use(middleware.Timeout(cfg.Server.HTTP.RequestTimeout))

		RegisterRoutes(r, h)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Route not found",
			middleware.GetRequestID(req.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, response.ErrCodeMethodNotAllowed, "Method not allowed",
			middleware.GetRequestID(req.Context()))
	})

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1/users/{tag}", func(r chi.Router) {
		if h.Memory != nil {
			r.Route("/memories", func(r chi.Router) {
				r.Post("/", h.Memory.Create)
				r.Get("/", h.Memory.List)
				r.Get("/{id}", h.Memory.Get)
				r.Patch("/{id}", h.Memory.Update)
				r.Delete("/{id}", h.Memory.Delete)
				r.Post("/{id}/review", h.Memory.Review)
			})
		}

		if h.Quiz != nil {
			r.Post("/quiz/questions", h.Quiz.Questions)
			r.Post("/quiz/{id}/answer", h.Quiz.Answer)
		}

		if h.Insight != nil {
			r.Get("/alerts", h.Insight.Alerts)
			r.Get("/patterns", h.Insight.Patterns)
			r.Get("/dashboard", h.Insight.Dashboard)
			r.Post("/chat", h.Insight.Chat)
			r.Get("/search", h.Insight.Search)
			r.Get("/digest", h.Insight.Digest)
		}
	})

	// Health check routes (not versioned)
	if h.Health != nil {
		r.Get("/health", h.Health.Health)
		r.Get("/ready", h.Health.Ready)
		r.Get("/status", h.Health.Status)
	}

	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
