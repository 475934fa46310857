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
var _ driven.LinkStore = (*LinkStore)(nil)

// LinkStore implements driven.LinkStore using PostgreSQL
type LinkStore struct {
	db *DB
}

// NewLinkStore creates a new LinkStore
func NewLinkStore(db *DB) *LinkStore {
	return &LinkStore{db: db}
}

const linkColumns = `id, url, title, last_processed, last_error, created_at, updated_at`

// Save creates or updates a link
func (s *LinkStore) Save(ctx context.Context, link *domain.Link) error {
	query := `
		INSERT INTO links (id, url, title, last_processed, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			url = EXCLUDED.url,
			title = EXCLUDED.title,
			last_processed = EXCLUDED.last_processed,
			last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		link.ID,
		link.URL,
		link.Title,
		NullTime(link.LastProcessed),
		link.LastError,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save link: %w", err)
	}
	return nil
}

// Get retrieves a link by ID
func (s *LinkStore) Get(ctx context.Context, id string) (*domain.Link, error) {
	return s.getOne(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id)
}

// GetByURL retrieves a link by URL
func (s *LinkStore) GetByURL(ctx context.Context, url string) (*domain.Link, error) {
	return s.getOne(ctx, `SELECT `+linkColumns+` FROM links WHERE url = $1`, url)
}

func (s *LinkStore) getOne(ctx context.Context, query string, arg string) (*domain.Link, error) {
	link, err := scanLink(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

// List retrieves all links ordered by creation time
func (s *LinkStore) List(ctx context.Context) ([]*domain.Link, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM links ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []*domain.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// Delete deletes a link
func (s *LinkStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
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

func scanLink(row rowScanner) (*domain.Link, error) {
	var link domain.Link
	var lastProcessed sql.NullTime
	err := row.Scan(
		&link.ID,
		&link.URL,
		&link.Title,
		&lastProcessed,
		&link.LastError,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	link.LastProcessed = TimePtr(lastProcessed)
	return &link, nil
}
