package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/auditor/internal/api/v1"
	"github.com/gosuda/auditor/internal/api/ws"
	"github.com/gosuda/auditor/internal/config"
	"github.com/gosuda/auditor/internal/metrics"
	"github.com/gosuda/auditor/internal/server/middleware"
)

// Pinger is a dependency checked by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface is wired to.
type Deps struct {
	Service    v1.ComplianceService
	Links      v1.LinkStore
	Subscriber ws.Subscriber
	// Health maps a dependency name ("postgres", "redis") to its health check.
	Health map[string]Pinger
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds background work
// such as rate limiter cleanup.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestLogger)
	router.Use(chimw.Recoverer)
	router.Use(metrics.Instrument)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		},
	}

	limiter := middleware.RateLimit(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret, cfg.JWT.Issuer))
		r.Use(limiter)
		r.Use(middleware.RequireWriteRole(middleware.RoleAdmin, middleware.RoleAuditor))

		apiConfig := huma.DefaultConfig("Auditor API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api/v1"},
		}
		api := humachi.New(r, apiConfig)
		registerAPIRoutes(api, deps)
	})

	// WebSocket event streams are read-only, so any known role may listen.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret, cfg.JWT.Issuer))
		r.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAuditor, middleware.RoleViewer))
		registerWSRoutes(r, ws.NewHub(deps.Subscriber, deps.Service))
	})

	// Health check and metrics (unauthenticated).
	router.Get("/healthz", healthHandler(deps.Health))
	router.Handle("/metrics", metrics.Handler())

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok"}
		failed := map[string]string{}
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				log.Warn().Err(err).Str("dependency", name).Msg("health check failed")
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["failed"] = failed
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	log.Info().Str("addr", s.cfg.Server.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
