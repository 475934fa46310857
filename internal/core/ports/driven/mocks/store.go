package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
	"github.com/custodia-labs/lexis-core/internal/vectors"
)

var (
	_ driven.ResourceStore  = (*MockStore)(nil)
	_ driven.EmbeddingStore = (*MockStore)(nil)
	_ driven.LinkStore      = (*MockLinkStore)(nil)
)

// MockStore is an in-memory resource and embedding store. Deleting a
// resource cascades to its embeddings, as the SQL schemas do.
type MockStore struct {
	mu         sync.RWMutex
	resources  map[string]*domain.Resource
	embeddings []*domain.Embedding

	// Optional failure injection
	SearchErr    error
	SaveBatchErr error
	DeleteErr    error
}

// NewMockStore creates a new MockStore
func NewMockStore() *MockStore {
	return &MockStore{resources: make(map[string]*domain.Resource)}
}

func (m *MockStore) Save(ctx context.Context, r *domain.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.resources[r.ID] = &cp
	return nil
}

func (m *MockStore) Get(ctx context.Context, id string) (*domain.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockStore) List(ctx context.Context, sourceType domain.SourceType, limit, offset int) ([]*domain.Resource, error) {
	m.mu.RLock()
	var result []*domain.Resource
	for _, r := range m.resources {
		if sourceType == "" || r.SourceType == sourceType {
			cp := *r
			result = append(result, &cp)
		}
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockStore) ListBySourceID(ctx context.Context, sourceID string) ([]*domain.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Resource
	for _, r := range m.resources {
		if r.SourceID == sourceID {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[id]; !ok {
		return domain.ErrNotFound
	}
	m.deleteLocked(id)
	return nil
}

func (m *MockStore) DeleteBySourceID(ctx context.Context, sourceID string) (int, error) {
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, r := range m.resources {
		if r.SourceID == sourceID {
			m.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (m *MockStore) deleteLocked(id string) {
	delete(m.resources, id)
	kept := m.embeddings[:0]
	for _, e := range m.embeddings {
		if e.ResourceID != id {
			kept = append(kept, e)
		}
	}
	m.embeddings = kept
}

func (m *MockStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.resources), nil
}

func (m *MockStore) SaveBatch(ctx context.Context, embeddings []*domain.Embedding) error {
	if m.SaveBatchErr != nil {
		return m.SaveBatchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range embeddings {
		if _, ok := m.resources[e.ResourceID]; !ok {
			return fmt.Errorf("resource %s: %w", e.ResourceID, domain.ErrNotFound)
		}
	}
	for _, e := range embeddings {
		cp := *e
		m.embeddings = append(m.embeddings, &cp)
	}
	return nil
}

func (m *MockStore) ListByResource(ctx context.Context, resourceID string) ([]*domain.Embedding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Embedding
	for _, e := range m.embeddings {
		if e.ResourceID == resourceID {
			cp := *e
			result = append(result, &cp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (m *MockStore) CountByResource(ctx context.Context, resourceID string) (int, error) {
	rows, _ := m.ListByResource(ctx, resourceID)
	return len(rows), nil
}

func (m *MockStore) Search(ctx context.Context, vector []float32, threshold float64, limit int) ([]domain.Candidate, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var result []domain.Candidate
	for _, e := range m.embeddings {
		sim := vectors.CosineSimilarity(e.Vector, vector)
		if sim > threshold {
			result = append(result, domain.Candidate{
				Content:     e.Content,
				Similarity:  sim,
				ResourceID:  e.ResourceID,
				ContentHash: e.ContentHash,
			})
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool { return result[i].Similarity > result[j].Similarity })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// AddEmbedding inserts a row directly (for test setup)
func (m *MockStore) AddEmbedding(e *domain.Embedding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings = append(m.embeddings, e)
}

// EmbeddingCount returns the total number of stored embeddings
func (m *MockStore) EmbeddingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.embeddings)
}

// MockLinkStore is an in-memory link store
type MockLinkStore struct {
	mu    sync.RWMutex
	links map[string]*domain.Link
}

// NewMockLinkStore creates a new MockLinkStore
func NewMockLinkStore() *MockLinkStore {
	return &MockLinkStore{links: make(map[string]*domain.Link)}
}

func (m *MockLinkStore) Save(ctx context.Context, link *domain.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *link
	m.links[link.ID] = &cp
	return nil
}

func (m *MockLinkStore) Get(ctx context.Context, id string) (*domain.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.links[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MockLinkStore) GetByURL(ctx context.Context, url string) (*domain.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.links {
		if l.URL == url {
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockLinkStore) List(ctx context.Context) ([]*domain.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Link, 0, len(m.links))
	for _, l := range m.links {
		cp := *l
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *MockLinkStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.links, id)
	return nil
}
