package postgres

import (
	"strings"
	"testing"
)

func TestSearchQuery_OrdersByIndexedDistance(t *testing.T) {
	q := strings.Join(strings.Fields(searchQuery), " ")

	if !strings.Contains(q, "ORDER BY embedding <=> $1, id") {
		t.Errorf("expected ordering on raw cosine distance, got %q", q)
	}
	if strings.Contains(q, "similarity DESC") {
		t.Errorf("ordering on the computed similarity bypasses the vector index: %q", q)
	}
	if !strings.Contains(q, "embedding <=> $1 < 1 - $2::float8") {
		t.Errorf("expected threshold expressed as a distance bound, got %q", q)
	}
}
