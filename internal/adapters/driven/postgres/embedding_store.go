package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EmbeddingStore = (*EmbeddingStore)(nil)

// EmbeddingStore implements driven.EmbeddingStore on a pgvector column.
// Similarity is 1 - cosine distance (the <=> operator).
type EmbeddingStore struct {
	db *DB
}

// NewEmbeddingStore creates a new EmbeddingStore
func NewEmbeddingStore(db *DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

// SaveBatch saves embeddings in a single transaction
func (s *EmbeddingStore) SaveBatch(ctx context.Context, embeddings []*domain.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO embeddings (id, resource_id, content, content_hash, position, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare embedding insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range embeddings {
			if len(e.Vector) != s.db.dimensions {
				return fmt.Errorf("embedding %s has %d dimensions, column expects %d: %w",
					e.ID, len(e.Vector), s.db.dimensions, domain.ErrInvalidInput)
			}
			_, err := stmt.ExecContext(ctx,
				e.ID,
				e.ResourceID,
				e.Content,
				e.ContentHash,
				e.Position,
				pgvector.NewVector(e.Vector),
				e.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert embedding %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

// ListByResource retrieves a resource's embeddings ordered by position
func (s *EmbeddingStore) ListByResource(ctx context.Context, resourceID string) ([]*domain.Embedding, error) {
	query := `
		SELECT id, resource_id, content, content_hash, position, embedding, created_at
		FROM embeddings
		WHERE resource_id = $1
		ORDER BY position, id
	`
	rows, err := s.db.QueryContext(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	var result []*domain.Embedding
	for rows.Next() {
		var e domain.Embedding
		var vec pgvector.Vector
		if err := rows.Scan(&e.ID, &e.ResourceID, &e.Content, &e.ContentHash, &e.Position, &vec, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		e.Vector = vec.Slice()
		result = append(result, &e)
	}
	return result, rows.Err()
}

// CountByResource returns the number of embeddings for a resource
func (s *EmbeddingStore) CountByResource(ctx context.Context, resourceID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings WHERE resource_id = $1`, resourceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

// searchQuery filters and orders on raw cosine distance; hnsw only serves
// ORDER BY distance ascending. similarity > t is distance < 1 - t.
const searchQuery = `
	SELECT content, content_hash, resource_id, 1 - (embedding <=> $1) AS similarity
	FROM embeddings
	WHERE embedding <=> $1 < 1 - $2::float8
	ORDER BY embedding <=> $1, id
	LIMIT $3
`

// Search returns rows more similar than threshold, most similar first.
// Ties are broken by id so repeated searches return the same order.
func (s *EmbeddingStore) Search(ctx context.Context, vector []float32, threshold float64, limit int) ([]domain.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, searchQuery, pgvector.NewVector(vector), threshold, limit)
	if err != nil {
		return nil, domain.NewExternalError(domain.KindOf(err), "vector_search", "query failed", err)
	}
	defer rows.Close()

	var result []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.Content, &c.ContentHash, &c.ResourceID, &c.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
