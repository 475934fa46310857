package domain

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// SourceType determines how a resource's content is chunked
type SourceType string

const (
	// SourceTypeText is manually curated content, stored as a single chunk
	SourceTypeText SourceType = "TEXT"
	// SourceTypeLink is content materialized from a monitored web page
	SourceTypeLink SourceType = "LINK"
	// SourceTypePDF is text extracted from an uploaded PDF
	SourceTypePDF SourceType = "PDF"
)

// ParseSourceType parses a source type, case-insensitively
func ParseSourceType(s string) (SourceType, bool) {
	st := SourceType(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.IsValid()
}

// IsValid reports whether the source type is known
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeText, SourceTypeLink, SourceTypePDF:
		return true
	}
	return false
}

// Resource is a unit of ingested knowledge
type Resource struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	SourceType SourceType `json:"source_type"`
	SourceID   string     `json:"source_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewResource creates a resource with a fresh ID
func NewResource(content string, sourceType SourceType, sourceID string) *Resource {
	now := time.Now()
	return &Resource{
		ID:         NewID(),
		Content:    content,
		SourceType: sourceType,
		SourceID:   sourceID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Embedding is a chunk of a resource's content paired with its vector.
// Embeddings are never updated in place; they are removed with their resource.
type Embedding struct {
	ID          string    `json:"id"`
	ResourceID  string    `json:"resource_id"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Position    int       `json:"position"`
	Vector      []float32 `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEmbedding creates an embedding row for a chunk of a resource
func NewEmbedding(resourceID string, position int, content string, vector []float32) *Embedding {
	return &Embedding{
		ID:          NewID(),
		ResourceID:  resourceID,
		Content:     content,
		ContentHash: HashContent(content),
		Position:    position,
		Vector:      vector,
		CreatedAt:   time.Now(),
	}
}

// Link is a monitored URL whose page is materialized into LINK resources
// with SourceID set to the link's ID.
type Link struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Title         string     `json:"title,omitempty"`
	LastProcessed *time.Time `json:"last_processed,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewLink creates a link with a fresh ID
func NewLink(url, title string) *Link {
	now := time.Now()
	return &Link{
		ID:        NewID(),
		URL:       url,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsStale reports whether the link has not been processed within maxAge
func (l *Link) IsStale(maxAge time.Duration, now time.Time) bool {
	if l.LastProcessed == nil {
		return true
	}
	return now.Sub(*l.LastProcessed) >= maxAge
}

// MarkProcessed records a refresh attempt
func (l *Link) MarkProcessed(errMsg string) {
	now := time.Now()
	l.LastProcessed = &now
	l.LastError = errMsg
	l.UpdatedAt = now
}

// NewID returns a new UUIDv4 string
func NewID() string {
	return uuid.NewString()
}

// HashContent returns the content address of a chunk (hex BLAKE2b-256)
func HashContent(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
