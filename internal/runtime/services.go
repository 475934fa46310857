// Package runtime owns the externally backed clients whose lifecycle is
// tied to the process: they are built at startup, may be swapped while
// running, and are closed on shutdown.
package runtime

import (
	"context"
	"sync"

	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

// Backends records which infrastructure was selected at startup
type Backends struct {
	Store string // "postgres" or "sqlite"
	Queue string // "redis", "postgres" or "" when no worker queue is configured
	Lock  string // "redis", "postgres" or ""
}

// Services holds the embedding client shared by ingestion and retrieval.
// Safe for concurrent use.
type Services struct {
	mu        sync.RWMutex
	backends  Backends
	embedding driven.EmbeddingService
}

// NewServices creates a new Services registry
func NewServices(backends Backends) *Services {
	return &Services{backends: backends}
}

// Backends returns the infrastructure selected at startup
func (s *Services) Backends() Backends {
	return s.backends
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embedding
}

// EmbeddingAvailable reports whether an embedding service is configured
func (s *Services) EmbeddingAvailable() bool {
	return s.EmbeddingService() != nil
}

// SetEmbeddingService replaces the embedding service, closing the old one
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.embedding != nil && s.embedding != svc {
		_ = s.embedding.Close()
	}
	s.embedding = svc
}

// ValidateAndSetEmbedding health-checks svc before installing it
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}
	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}
	s.SetEmbeddingService(svc)
	return nil
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.embedding != nil {
		err := s.embedding.Close()
		s.embedding = nil
		return err
	}
	return nil
}
