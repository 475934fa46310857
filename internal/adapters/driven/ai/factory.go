package ai

import (
	"fmt"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

// Ensure Factory implements EmbeddingFactory
var _ driven.EmbeddingFactory = (*Factory)(nil)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Factory creates embedding services based on configuration
type Factory struct{}

// NewFactory creates a new embedding service factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns nil, nil when no provider is configured; the services
// run without embeddings and report themselves degraded.
func (f *Factory) Create(settings driven.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case ProviderOpenAI:
		svc, err := NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL, settings.Dimensions)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case ProviderOllama:
		svc, err := NewOllamaEmbedding(settings.BaseURL, settings.Model, settings.Dimensions)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
