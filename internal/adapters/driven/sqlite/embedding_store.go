package sqlite

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
	"github.com/custodia-labs/lexis-core/internal/vectors"
)

// embeddingStore implements driven.EmbeddingStore.
type embeddingStore struct {
	store *Store
}

var _ driven.EmbeddingStore = (*embeddingStore)(nil)

// SaveBatch inserts embeddings in one transaction.
func (s *embeddingStore) SaveBatch(ctx context.Context, embeddings []*domain.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (id, resource_id, content, content_hash, position, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing embedding insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range embeddings {
		if len(e.Vector) == 0 {
			return fmt.Errorf("embedding %s has no vector: %w", e.ID, domain.ErrInvalidInput)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.ResourceID, e.Content, e.ContentHash,
			e.Position, vectors.Encode(e.Vector), formatTime(e.CreatedAt)); err != nil {
			return fmt.Errorf("inserting embedding %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing embeddings: %w", err)
	}
	return nil
}

// ListByResource returns a resource's embeddings ordered by position.
func (s *embeddingStore) ListByResource(ctx context.Context, resourceID string) ([]*domain.Embedding, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, resource_id, content, content_hash, position, embedding, created_at
		FROM embeddings
		WHERE resource_id = ?
		ORDER BY position, id
	`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var result []*domain.Embedding
	for rows.Next() {
		var e domain.Embedding
		var blob []byte
		var createdAt string
		if err := rows.Scan(&e.ID, &e.ResourceID, &e.Content, &e.ContentHash, &e.Position, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		if e.Vector, err = vectors.Decode(blob); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}
	return result, nil
}

// CountByResource returns the number of embeddings for a resource.
func (s *embeddingStore) CountByResource(ctx context.Context, resourceID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings WHERE resource_id = ?`, resourceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return count, nil
}

type scoredRow struct {
	id        string
	candidate domain.Candidate
}

// Search scans every stored vector and keeps those more similar than
// threshold, most similar first with id as the tiebreak.
func (s *embeddingStore) Search(ctx context.Context, vector []float32, threshold float64, limit int) ([]domain.Candidate, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT id, content, content_hash, resource_id, embedding FROM embeddings`)
	if err != nil {
		return nil, domain.NewExternalError(domain.KindOf(err), "vector_search", "query failed", err)
	}
	defer rows.Close()

	var matches []scoredRow
	for rows.Next() {
		var r scoredRow
		var blob []byte
		if err := rows.Scan(&r.id, &r.candidate.Content, &r.candidate.ContentHash, &r.candidate.ResourceID, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		v, err := vectors.Decode(blob)
		if err != nil {
			return nil, err
		}
		r.candidate.Similarity = vectors.CosineSimilarity(vector, v)
		if r.candidate.Similarity > threshold {
			matches = append(matches, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewExternalError(domain.KindOf(err), "vector_search", "scan failed", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].candidate.Similarity != matches[j].candidate.Similarity {
			return matches[i].candidate.Similarity > matches[j].candidate.Similarity
		}
		return matches[i].id < matches[j].id
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	result := make([]domain.Candidate, len(matches))
	for i, m := range matches {
		result[i] = m.candidate
	}
	return result, nil
}
