package driving

import (
	"context"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

// TextInput is manually curated content, stored as a single chunk
type TextInput struct {
	Content  string `json:"content"`
	Lei      string `json:"lei,omitempty"`
	Contexto string `json:"contexto,omitempty"`
	SourceID string `json:"source_id,omitempty"`
}

// PDFInput is an uploaded PDF document
type PDFInput struct {
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
	Lei      string `json:"lei,omitempty"`
	Contexto string `json:"contexto,omitempty"`
}

// CuratedInput is a legislative excerpt pre-split by an operator
type CuratedInput struct {
	Lei      string   `json:"lei"`
	Contexto string   `json:"contexto,omitempty"`
	Chunks   []string `json:"chunks"`
	SourceID string   `json:"source_id,omitempty"`
}

// LinkInput registers a monitored web page
type LinkInput struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// IngestionService is the ingestion trigger. Ingest operations report
// failures in the outcome rather than as errors.
type IngestionService interface {
	IngestText(ctx context.Context, in TextInput) *domain.IngestOutcome
	IngestPDF(ctx context.Context, in PDFInput) *domain.IngestOutcome
	IngestCurated(ctx context.Context, in CuratedInput) *domain.IngestOutcome

	// GetResource retrieves a resource by ID
	GetResource(ctx context.Context, id string) (*domain.Resource, error)

	// ListResources lists resources, optionally filtered by source type
	ListResources(ctx context.Context, sourceType domain.SourceType, limit, offset int) ([]*domain.Resource, error)

	// ListEmbeddings lists the chunks stored for a resource
	ListEmbeddings(ctx context.Context, resourceID string) ([]*domain.Embedding, error)

	// DeleteResource deletes a resource and, through the store cascade, its embeddings
	DeleteResource(ctx context.Context, id string) error
}

// LinkService manages monitored links and their derived resources
type LinkService interface {
	// CreateLink registers a link and materializes it immediately
	CreateLink(ctx context.Context, in LinkInput) *domain.IngestOutcome

	// RefreshLink re-fetches a link and replaces its resources
	RefreshLink(ctx context.Context, linkID string) *domain.IngestOutcome

	// GetLink retrieves a link by ID
	GetLink(ctx context.Context, id string) (*domain.Link, error)

	// ListLinks lists all links
	ListLinks(ctx context.Context) ([]*domain.Link, error)

	// DeleteLink deletes a link and every resource derived from it
	DeleteLink(ctx context.Context, id string) error
}
