package driven

import (
	"context"
)

// EmbeddingService generates text embeddings.
// Failures are returned as *domain.ExternalError so callers can switch on the kind.
type EmbeddingService interface {
	// Embed generates one vector per text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the embedding dimension size
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}

// EmbeddingFactory creates embedding services from settings
type EmbeddingFactory interface {
	// Create returns nil, nil when no provider is configured
	Create(settings EmbeddingSettings) (EmbeddingService, error)
}

// EmbeddingSettings selects and configures an embedding provider
type EmbeddingSettings struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int
}

// IsConfigured reports whether a provider has been selected
func (s EmbeddingSettings) IsConfigured() bool {
	return s.Provider != ""
}
