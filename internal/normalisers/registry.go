// Package normalisers extracts plain text from fetched content, choosing
// the extraction by MIME type.
package normalisers

import (
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry selects the highest-priority normaliser matching a MIME type.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry registers the built-in normalisers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&PlaintextNormaliser{})
	r.Register(&HTMLNormaliser{})
	return r
}

// Register adds a normaliser.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Get returns the best match, or nil when nothing handles mimeType.
func (r *Registry) Get(mimeType string) driven.Normaliser {
	mediaType := baseMediaType(mimeType)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.normalisers {
		if supports(n.SupportedTypes(), mediaType) {
			return n
		}
	}
	return nil
}

// List returns all registered MIME types, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, t := range n.SupportedTypes() {
			set[t] = struct{}{}
		}
	}
	types := make([]string, 0, len(set))
	for t := range set {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// baseMediaType strips parameters such as charset.
func baseMediaType(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}

// supports matches exact types, "type/*" wildcards and "*/*".
func supports(supported []string, mediaType string) bool {
	for _, s := range supported {
		s = strings.ToLower(strings.TrimSpace(s))
		switch {
		case s == "*/*", s == mediaType:
			return true
		case strings.HasSuffix(s, "/*") && strings.HasPrefix(mediaType, strings.TrimSuffix(s, "*")):
			return true
		}
	}
	return false
}

// PlaintextNormaliser is the fallback for any type.
type PlaintextNormaliser struct{}

// Normalise normalises line endings and trims trailing spaces per line.
func (n *PlaintextNormaliser) Normalise(content string, mimeType string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (n *PlaintextNormaliser) SupportedTypes() []string {
	return []string{"text/plain", "*/*"}
}

func (n *PlaintextNormaliser) Priority() int {
	return 1
}
