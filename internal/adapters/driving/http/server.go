package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	ingestion driving.IngestionService
	links     driving.LinkService
	retrieval driving.RetrievalService
	tokens    driven.TokenAdapter

	// Infrastructure
	taskQueue driven.TaskQueue // optional
	db        Pinger
	redis     Pinger // optional

	maxUploadBytes int64
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	CORSOrigins    []string
	MaxUploadBytes int64 // PDF upload limit (default: 20MB)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		CORSOrigins:    []string{"*"},
		MaxUploadBytes: 20 << 20,
	}
}

// Deps groups the services the server routes to
type Deps struct {
	Ingestion driving.IngestionService
	Links     driving.LinkService
	Retrieval driving.RetrievalService
	Tokens    driven.TokenAdapter
	TaskQueue driven.TaskQueue
	DB        Pinger
	Redis     Pinger
	Logger    *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}

	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		logger:         logger,
		ingestion:      deps.Ingestion,
		links:          deps.Links,
		retrieval:      deps.Retrieval,
		tokens:         deps.Tokens,
		taskQueue:      deps.TaskQueue,
		db:             deps.DB,
		redis:          deps.Redis,
		maxUploadBytes: maxUpload,
	}

	s.setupRoutes()

	handler := NewRecoveryMiddleware(logger).Handler(
		NewLoggingMiddleware(logger).Handler(
			NewCORSMiddleware(cfg.CORSOrigins).Handler(s.router)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.tokens)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireAdmin(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwagger)

	// Resource endpoints (admin-only for mutations)
	s.router.Handle("POST /api/v1/resources/text", admin(s.handleIngestText))
	s.router.Handle("POST /api/v1/resources/pdf", admin(s.handleIngestPDF))
	s.router.Handle("POST /api/v1/resources/curated", admin(s.handleIngestCurated))
	s.router.Handle("GET /api/v1/resources", authed(s.handleListResources))
	s.router.Handle("GET /api/v1/resources/{id}", authed(s.handleGetResource))
	s.router.Handle("GET /api/v1/resources/{id}/embeddings", authed(s.handleListEmbeddings))
	s.router.Handle("DELETE /api/v1/resources/{id}", admin(s.handleDeleteResource))

	// Link endpoints
	s.router.Handle("POST /api/v1/links", admin(s.handleCreateLink))
	s.router.Handle("GET /api/v1/links", authed(s.handleListLinks))
	s.router.Handle("GET /api/v1/links/{id}", authed(s.handleGetLink))
	s.router.Handle("POST /api/v1/links/{id}/refresh", admin(s.handleRefreshLink))
	s.router.Handle("DELETE /api/v1/links/{id}", admin(s.handleDeleteLink))

	// Retrieval (any authenticated role)
	s.router.Handle("POST /api/v1/retrieve", authed(s.handleRetrieve))

	// Queue statistics (admin-only)
	s.router.Handle("GET /api/v1/admin/queue", admin(s.handleQueueStats))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
