// Package api exposes the engagement pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/trapline-dev/trapline/internal/honeypot"
	"github.com/trapline-dev/trapline/pkg/observability"
)

// Server is the public honeypot API.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	service    *honeypot.Service
	checker    *observability.HealthChecker
	logger     *slog.Logger
	port       int
}

// Config holds HTTP server settings.
type Config struct {
	Port int `yaml:"port"`

	// RateLimit is sustained requests per second across all callers;
	// RateBurst is the bucket size. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// NewServer wires routes and middleware around the service.
func NewServer(cfg Config, service *honeypot.Service, checker *observability.HealthChecker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		checker: checker,
		logger:  logger,
		port:    cfg.Port,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestMetrics)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	if cfg.RateLimit > 0 {
		s.router.Use(rateLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/engage", s.handleEngage)
		r.Post("/engage/batch", s.handleEngageBatch)
		r.Post("/engage/extended", s.handleEngageExtended)
		r.Get("/sessions/{id}", s.handleGetSession)
	})

	if checker != nil {
		s.router.Get("/health", checker.Handler())
		s.router.Get("/health/live", checker.LivenessHandler())
		s.router.Get("/health/ready", checker.ReadinessHandler())
	}
	s.router.Handle("/metrics", observability.MetricsHandler())

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("api server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
