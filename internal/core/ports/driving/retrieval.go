package driving

import (
	"context"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

// RetrievalService selects knowledge-base fragments for prompt injection
type RetrievalService interface {
	// FindRelevantContent returns the ranked fragment list for a query.
	// It never fails: any provider or store error yields an empty list.
	FindRelevantContent(ctx context.Context, query string) []domain.Fragment
}
