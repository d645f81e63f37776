package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agentstation/menumerge/internal/server/handlers"
	"github.com/agentstation/menumerge/internal/server/middleware"
	"github.com/agentstation/menumerge/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.Logger(s.logger))
	router.Use(middleware.Recovery(s.logger))
	if s.config.CORSEnabled {
		cors := middleware.DefaultCORSConfig()
		if len(s.config.CORSOrigins) > 0 {
			cors.AllowedOrigins = s.config.CORSOrigins
		}
		router.Use(middleware.CORS(cors))
	}
	if s.limiter != nil {
		router.Use(middleware.RateLimit(s.limiter))
	}

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFoundDetail(w, "Not Found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Write(w, http.StatusMethodNotAllowed, response.Detail{Detail: "Method Not Allowed"})
	})

	h := handlers.New(handlers.Deps{
		Client:         s.client,
		Cache:          s.cache,
		Broker:         s.broker,
		WSHub:          s.wsHub,
		SSEBroadcaster: s.sseBroadcaster,
		Upgrader:       s.upgrader,
		Logger:         s.logger,
		RetryAfter:     s.config.RetryAfter,
		StartTime:      s.startTime,
	})

	s.registerRoutes(router, h)
	return router
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(router chi.Router, h *handlers.Handlers) {
	router.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Datasets
	router.Post("/data-a", h.HandleSubmitPrimary)
	router.Get("/data-c", h.HandleGetSnapshot)

	router.Get("/health", h.HandleHealth)
	if s.config.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", h.Metrics())
	}

	router.Route(normalizePrefix(s.config.PathPrefix), func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Get("/ready", h.HandleReady)
		r.Get("/status", h.HandleStatus)
		r.Post("/update", h.HandleUpdate)

		r.Get("/updates/ws", h.HandleWebSocket)
		r.Get("/updates/stream", h.HandleSSE)
	})
}

func normalizePrefix(prefix string) string {
	if prefix == "" || prefix == "/" {
		return "/api/v1"
	}
	if prefix[0] != '/' {
		prefix = "/" + prefix
	}
	for len(prefix) > 1 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}
