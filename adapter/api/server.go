// Package api serves the scheduling operations over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/iworkr/iworkr-stack-sub004/internal/identity"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

// Server is the HTTP API server for scheduling.
type Server struct {
	router  *mux.Router
	server  *http.Server
	logger  *slog.Logger
	handler *ScheduleHandler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string

	// Verifier authenticates bearer tokens. Nil disables authentication and
	// leaves caller resolution to the command handlers.
	Verifier *identity.TokenVerifier
	Health   *observability.HealthRegistry
	Metrics  prometheus.Gatherer
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           "0.0.0.0:8080",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new scheduling API server.
func NewServer(cfg ServerConfig, handler *ScheduleHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:  mux.NewRouter(),
		logger:  logger,
		handler: handler,
	}
	s.registerRoutes(cfg)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", observability.CorrelationIDHeader},
		ExposedHeaders: []string{observability.CorrelationIDHeader, observability.RequestIDHeader},
	})

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      c.Handler(s.router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes(cfg ServerConfig) {
	s.router.Use(requestContext, recoverer(s.logger), accessLog(s.logger))

	s.router.HandleFunc("/healthz", s.handleLiveness).Methods(http.MethodGet)
	if cfg.Health != nil {
		s.router.Handle("/readyz", cfg.Health.Handler()).Methods(http.MethodGet)
	}
	if cfg.Metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	if cfg.Verifier != nil {
		v1.Use(authenticate(cfg.Verifier))
	}

	h := s.handler
	org := v1.PathPrefix("/organizations/{orgID}").Subrouter()
	org.HandleFunc("/blocks", h.ListBlocks).Methods(http.MethodGet)
	org.HandleFunc("/blocks", h.CreateBlock).Methods(http.MethodPost)
	org.HandleFunc("/assignments", h.AssignJob).Methods(http.MethodPost)
	org.HandleFunc("/backlog", h.ListBacklog).Methods(http.MethodGet)
	org.HandleFunc("/events", h.ListEvents).Methods(http.MethodGet)
	org.HandleFunc("/events", h.CreateEvent).Methods(http.MethodPost)
	org.HandleFunc("/day-view", h.GetDayView).Methods(http.MethodGet)
	org.HandleFunc("/conflicts", h.CheckConflicts).Methods(http.MethodGet)

	v1.HandleFunc("/blocks/{blockID}", h.UpdateBlock).Methods(http.MethodPatch)
	v1.HandleFunc("/blocks/{blockID}", h.DeleteBlock).Methods(http.MethodDelete)
	v1.HandleFunc("/blocks/{blockID}/move", h.MoveBlock).Methods(http.MethodPost)
	v1.HandleFunc("/blocks/{blockID}/resize", h.ResizeBlock).Methods(http.MethodPost)
	v1.HandleFunc("/events/{eventID}", h.DeleteEvent).Methods(http.MethodDelete)
}

// handleLiveness reports that the process is serving.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler returns the root handler including CORS.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting scheduling API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down scheduling API server")
	return s.server.Shutdown(ctx)
}
