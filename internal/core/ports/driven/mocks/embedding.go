package mocks

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/vectors"
)

// MockEmbeddingService produces deterministic bag-of-words vectors: each
// word is hashed into a bucket, so texts sharing words are similar.
type MockEmbeddingService struct {
	mu         sync.Mutex
	dimensions int
	model      string
	failNext   bool
	failWhen   func(texts []string) bool
	batches    [][]string
	queries    []string
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 384,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, append([]string(nil), texts...))
	fail := m.shouldFail(texts)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail {
		return nil, domain.NewExternalError(domain.KindUnavailable, "embed", "mock failure", nil)
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.Vector(text)
	}
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	fail := m.shouldFail([]string{query})
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail {
		return nil, domain.NewExternalError(domain.KindRateLimited, "embed", "mock failure", nil)
	}
	return m.Vector(query), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

// Vector returns the embedding the mock assigns to text
func (m *MockEmbeddingService) Vector(text string) []float32 {
	v := make([]float32, m.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%uint32(m.dimensions)]++
	}
	return vectors.Normalize(v)
}

// must hold m.mu
func (m *MockEmbeddingService) shouldFail(texts []string) bool {
	if m.failNext {
		m.failNext = false
		return true
	}
	return m.failWhen != nil && m.failWhen(texts)
}

// Helper methods for testing

func (m *MockEmbeddingService) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

// SetFailWhen fails every call whose inputs satisfy fn
func (m *MockEmbeddingService) SetFailWhen(fn func(texts []string) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWhen = fn
}

func (m *MockEmbeddingService) SetDimensions(dim int) {
	m.dimensions = dim
}

// Batches returns the inputs of every Embed call
func (m *MockEmbeddingService) Batches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.batches...)
}

// Queries returns the inputs of every EmbedQuery call
func (m *MockEmbeddingService) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}
