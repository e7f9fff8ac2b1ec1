package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Server exposes health and metrics endpoints on a port separate from
// the engagement API, so probes and scrapes never compete with
// honeypot traffic.
type Server struct {
	httpServer *http.Server
	checker    *HealthChecker
	port       int
}

// NewServer creates a new observability server
func NewServer(port int, checker *HealthChecker) *Server {
	return &Server{
		port:    port,
		checker: checker,
	}
}

// Start starts the observability server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/health", s.checker.Handler())
	mux.HandleFunc("/health/live", s.checker.LivenessHandler())
	mux.HandleFunc("/health/ready", s.checker.ReadinessHandler())

	// Metrics endpoint
	mux.Handle("/metrics", MetricsHandler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
