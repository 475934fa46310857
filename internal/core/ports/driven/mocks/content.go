package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

var (
	_ driven.PageFetcher  = (*MockPageFetcher)(nil)
	_ driven.PDFExtractor = (*MockPDFExtractor)(nil)
)

// MockPageFetcher serves canned pages and replays queued failures first
type MockPageFetcher struct {
	mu       sync.Mutex
	pages    map[string]*driven.FetchedPage
	failures map[string][]error
	calls    map[string]int
}

// NewMockPageFetcher creates a new MockPageFetcher
func NewMockPageFetcher() *MockPageFetcher {
	return &MockPageFetcher{
		pages:    make(map[string]*driven.FetchedPage),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

func (m *MockPageFetcher) Fetch(ctx context.Context, url string) (*driven.FetchedPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[url]++

	if queued := m.failures[url]; len(queued) > 0 {
		m.failures[url] = queued[1:]
		return nil, queued[0]
	}
	page, ok := m.pages[url]
	if !ok {
		return nil, domain.NewExternalError(domain.KindNotFound, "fetch", "no such page: "+url, nil)
	}
	cp := *page
	return &cp, nil
}

// SetPage registers the page served for url
func (m *MockPageFetcher) SetPage(url, contentType, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[url] = &driven.FetchedPage{URL: url, StatusCode: 200, ContentType: contentType, Body: body}
}

// QueueFailures makes the next len(errs) fetches of url fail in order
func (m *MockPageFetcher) QueueFailures(url string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[url] = append(m.failures[url], errs...)
}

// Calls returns how many times url was fetched
func (m *MockPageFetcher) Calls(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

// MockPDFExtractor returns fixed text and metadata
type MockPDFExtractor struct {
	Text string
	Meta driven.PDFMetadata
	Err  error
}

func (m *MockPDFExtractor) Extract(ctx context.Context, data []byte) (string, driven.PDFMetadata, error) {
	if m.Err != nil {
		return "", driven.PDFMetadata{}, m.Err
	}
	return m.Text, m.Meta, nil
}
