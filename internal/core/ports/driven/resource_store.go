package driven

import (
	"context"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

// ResourceStore handles resource persistence (PostgreSQL or SQLite)
type ResourceStore interface {
	// Save creates or updates a resource
	Save(ctx context.Context, resource *domain.Resource) error

	// Get retrieves a resource by ID. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id string) (*domain.Resource, error)

	// List retrieves resources, newest first. An empty sourceType means all.
	List(ctx context.Context, sourceType domain.SourceType, limit, offset int) ([]*domain.Resource, error)

	// ListBySourceID retrieves the resources derived from one source (link, curated batch)
	ListBySourceID(ctx context.Context, sourceID string) ([]*domain.Resource, error)

	// Delete deletes a resource. Its embeddings are removed by the store's
	// cascade; a failure there fails the whole delete.
	Delete(ctx context.Context, id string) error

	// DeleteBySourceID deletes every resource derived from a source.
	// Returns the number of resources removed.
	DeleteBySourceID(ctx context.Context, sourceID string) (int, error)

	// Count returns the total resource count
	Count(ctx context.Context) (int, error)
}

// EmbeddingStore handles embedding persistence and similarity search
type EmbeddingStore interface {
	// SaveBatch saves embeddings in a single transaction
	SaveBatch(ctx context.Context, embeddings []*domain.Embedding) error

	// ListByResource retrieves a resource's embeddings ordered by position
	ListByResource(ctx context.Context, resourceID string) ([]*domain.Embedding, error)

	// CountByResource returns the number of embeddings for a resource
	CountByResource(ctx context.Context, resourceID string) (int, error)

	// Search returns rows whose cosine similarity to vector is greater than
	// threshold, ordered by similarity descending and capped at limit.
	// Ties keep a stable order.
	Search(ctx context.Context, vector []float32, threshold float64, limit int) ([]domain.Candidate, error)
}

// LinkStore handles monitored link persistence
type LinkStore interface {
	// Save creates or updates a link
	Save(ctx context.Context, link *domain.Link) error

	// Get retrieves a link by ID. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id string) (*domain.Link, error)

	// GetByURL retrieves a link by URL. Returns domain.ErrNotFound if missing.
	GetByURL(ctx context.Context, url string) (*domain.Link, error)

	// List retrieves all links ordered by creation time
	List(ctx context.Context) ([]*domain.Link, error)

	// Delete deletes a link. Derived resources are removed by the caller.
	Delete(ctx context.Context, id string) error
}
