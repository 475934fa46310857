package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResourceStore = (*ResourceStore)(nil)

// ResourceStore implements driven.ResourceStore using PostgreSQL.
// Embeddings are removed by the ON DELETE CASCADE on embeddings.resource_id.
type ResourceStore struct {
	db *DB
}

// NewResourceStore creates a new ResourceStore
func NewResourceStore(db *DB) *ResourceStore {
	return &ResourceStore{db: db}
}

const resourceColumns = `id, content, source_type, source_id, created_at, updated_at`

// Save creates or updates a resource
func (s *ResourceStore) Save(ctx context.Context, r *domain.Resource) error {
	query := `
		INSERT INTO resources (id, content, source_type, source_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			source_type = EXCLUDED.source_type,
			source_id = EXCLUDED.source_id,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.Content,
		string(r.SourceType),
		nullIfEmpty(r.SourceID),
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save resource: %w", err)
	}
	return nil
}

// Get retrieves a resource by ID
func (s *ResourceStore) Get(ctx context.Context, id string) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	r, err := scanResource(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return r, nil
}

// List retrieves resources, newest first
func (s *ResourceStore) List(ctx context.Context, sourceType domain.SourceType, limit, offset int) ([]*domain.Resource, error) {
	query := `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE ($1 = '' OR source_type = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, string(sourceType), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()
	return scanResources(rows)
}

// ListBySourceID retrieves the resources derived from one source
func (s *ResourceStore) ListBySourceID(ctx context.Context, sourceID string) ([]*domain.Resource, error) {
	query := `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE source_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources by source: %w", err)
	}
	defer rows.Close()
	return scanResources(rows)
}

// Delete deletes a resource and, through the cascade, its embeddings
func (s *ResourceStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteBySourceID deletes every resource derived from a source
func (s *ResourceStore) DeleteBySourceID(ctx context.Context, sourceID string) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE source_id = $1`, sourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete resources by source: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Count returns the total resource count
func (s *ResourceStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (*domain.Resource, error) {
	var r domain.Resource
	var sourceType string
	var sourceID sql.NullString
	if err := row.Scan(&r.ID, &r.Content, &sourceType, &sourceID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.SourceType = domain.SourceType(sourceType)
	r.SourceID = sourceID.String
	return &r, nil
}

func scanResources(rows *sql.Rows) ([]*domain.Resource, error) {
	var resources []*domain.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return resources, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
