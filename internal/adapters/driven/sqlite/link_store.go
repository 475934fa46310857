package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

// linkStore implements driven.LinkStore.
type linkStore struct {
	store *Store
}

var _ driven.LinkStore = (*linkStore)(nil)

const linkColumns = `id, url, title, last_processed, last_error, created_at, updated_at`

// Save stores or updates a link.
func (s *linkStore) Save(ctx context.Context, link *domain.Link) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO links (id, url, title, last_processed, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			last_processed = excluded.last_processed,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`, link.ID, link.URL, link.Title, formatNullableTime(link.LastProcessed), link.LastError,
		formatTime(link.CreatedAt), formatTime(link.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving link: %w", err)
	}
	return nil
}

// Get retrieves a link by ID.
func (s *linkStore) Get(ctx context.Context, id string) (*domain.Link, error) {
	return s.getOne(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
}

// GetByURL retrieves a link by URL.
func (s *linkStore) GetByURL(ctx context.Context, url string) (*domain.Link, error) {
	return s.getOne(ctx, `SELECT `+linkColumns+` FROM links WHERE url = ?`, url)
}

func (s *linkStore) getOne(ctx context.Context, query string, arg string) (*domain.Link, error) {
	link, err := scanLink(s.store.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning link: %w", err)
	}
	return link, nil
}

// List returns all links in creation order.
func (s *linkStore) List(ctx context.Context) ([]*domain.Link, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM links ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	var links []*domain.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return links, nil
}

// Delete removes a link.
func (s *linkStore) Delete(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting link: %w", err)
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
	var lastProcessed sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&link.ID, &link.URL, &link.Title, &lastProcessed, &link.LastError, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if link.LastProcessed, err = parseNullableTime(lastProcessed); err != nil {
		return nil, err
	}
	if link.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if link.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &link, nil
}
