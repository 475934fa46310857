package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

// resourceStore implements driven.ResourceStore.
type resourceStore struct {
	store *Store
}

var _ driven.ResourceStore = (*resourceStore)(nil)

const resourceColumns = `id, content, source_type, source_id, created_at, updated_at`

// Save stores or updates a resource.
func (s *resourceStore) Save(ctx context.Context, r *domain.Resource) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO resources (id, content, source_type, source_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			source_type = excluded.source_type,
			source_id = excluded.source_id,
			updated_at = excluded.updated_at
	`, r.ID, r.Content, string(r.SourceType), nullString(r.SourceID),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving resource: %w", err)
	}
	return nil
}

// Get retrieves a resource by ID.
func (s *resourceStore) Get(ctx context.Context, id string) (*domain.Resource, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
	r, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning resource: %w", err)
	}
	return r, nil
}

// List returns resources newest first, optionally filtered by type.
func (s *resourceStore) List(ctx context.Context, sourceType domain.SourceType, limit, offset int) ([]*domain.Resource, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+resourceColumns+`
		FROM resources
		WHERE (? = '' OR source_type = ?)
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, string(sourceType), string(sourceType), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying resources: %w", err)
	}
	defer rows.Close()
	return scanResources(rows)
}

// ListBySourceID returns the resources derived from one source.
func (s *resourceStore) ListBySourceID(ctx context.Context, sourceID string) ([]*domain.Resource, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+resourceColumns+`
		FROM resources
		WHERE source_id = ?
		ORDER BY created_at, id
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying resources by source: %w", err)
	}
	defer rows.Close()
	return scanResources(rows)
}

// Delete removes a resource; the foreign key cascade removes its embeddings.
func (s *resourceStore) Delete(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting resource: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteBySourceID removes every resource derived from a source.
func (s *resourceStore) DeleteBySourceID(ctx context.Context, sourceID string) (int, error) {
	result, err := s.store.db.ExecContext(ctx, `DELETE FROM resources WHERE source_id = ?`, sourceID)
	if err != nil {
		return 0, fmt.Errorf("deleting resources by source: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Count returns the total resource count.
func (s *resourceStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting resources: %w", err)
	}
	return count, nil
}

func scanResource(row rowScanner) (*domain.Resource, error) {
	var r domain.Resource
	var sourceType, createdAt, updatedAt string
	var sourceID sql.NullString
	if err := row.Scan(&r.ID, &r.Content, &sourceType, &sourceID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.SourceType = domain.SourceType(sourceType)
	r.SourceID = sourceID.String

	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanResources(rows *sql.Rows) ([]*domain.Resource, error) {
	var resources []*domain.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources: %w", err)
	}
	return resources, nil
}
