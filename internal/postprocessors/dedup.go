package postprocessors

import "github.com/custodia-labs/lexis-core/internal/core/domain"

// IndexedChunk is a chunk with its position in the chunker output.
type IndexedChunk struct {
	Position int
	Content  string
	Hash     string
}

// Deduplicate drops chunks whose content address was already seen,
// keeping the first occurrence and its position.
func Deduplicate(chunks []string) []IndexedChunk {
	seen := make(map[string]bool, len(chunks))
	result := make([]IndexedChunk, 0, len(chunks))
	for i, c := range chunks {
		h := domain.HashContent(c)
		if seen[h] {
			continue
		}
		seen[h] = true
		result = append(result, IndexedChunk{Position: i, Content: c, Hash: h})
	}
	return result
}
