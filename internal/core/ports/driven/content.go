package driven

import (
	"context"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

// FetchedPage is the raw result of fetching a link
type FetchedPage struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        string
}

// PageFetcher retrieves web pages for link ingestion.
// Failures are *domain.ExternalError; the kind decides whether a retry is safe.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedPage, error)
}

// PDFMetadata is the document information extracted alongside the text
type PDFMetadata struct {
	Title  string
	Author string
	Pages  int
}

// PDFExtractor extracts plain text and metadata from a PDF
type PDFExtractor interface {
	Extract(ctx context.Context, data []byte) (text string, meta PDFMetadata, err error)
}

// Normaliser turns fetched content of a MIME type into plain text.
// Paragraph boundaries are kept as blank lines.
type Normaliser interface {
	Normalise(content string, mimeType string) string

	// SupportedTypes returns MIME types this normaliser handles.
	// Can include wildcards like "text/*".
	SupportedTypes() []string

	// Priority returns the normaliser priority (higher = more specific)
	Priority() int
}

// NormaliserRegistry selects the highest-priority normaliser for a MIME type
type NormaliserRegistry interface {
	// Get returns nil if no normaliser is registered for the type
	Get(mimeType string) Normaliser

	Register(normaliser Normaliser)
}

// Chunker splits resource content into the units that get embedded
type Chunker interface {
	Chunk(text string, sourceType domain.SourceType) []string
}
