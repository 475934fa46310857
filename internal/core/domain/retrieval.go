package domain

import "time"

// Candidate is a row returned by a vector similarity search
type Candidate struct {
	Content     string  `json:"content"`
	Similarity  float64 `json:"similarity"`
	ResourceID  string  `json:"resource_id"`
	ContentHash string  `json:"content_hash,omitempty"`
}

// ScoredCandidate is a candidate annotated with quality and composite scores
type ScoredCandidate struct {
	Candidate
	QualityScore   int     `json:"quality_score"`
	CompositeScore float64 `json:"composite_score"`
}

// Fragment is a chunk selected for prompt injection
type Fragment struct {
	Content        string  `json:"content"`
	Similarity     float64 `json:"similarity"`
	ResourceID     string  `json:"resource_id"`
	TokenCount     int     `json:"token_count"`
	QualityScore   int     `json:"quality_score"`
	CompositeScore float64 `json:"composite_score"`
}

// TotalTokens sums the token counts of a fragment list
func TotalTokens(fragments []Fragment) int {
	total := 0
	for _, f := range fragments {
		total += f.TokenCount
	}
	return total
}

// RetrievalConfig tunes the ranker/selector. The threshold and budget were
// tuned against a specific embedding model and prompt size.
type RetrievalConfig struct {
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
	SearchLimit         int           `yaml:"search_limit"`
	MinQuality          int           `yaml:"min_quality"`
	SimilarityWeight    float64       `yaml:"similarity_weight"`
	QualityWeight       float64       `yaml:"quality_weight"`
	TokenBudget         int           `yaml:"token_budget"`
	MaxPerResource      int           `yaml:"max_per_resource"`
	MaxResults          int           `yaml:"max_results"`
	Timeout             time.Duration `yaml:"timeout"`
}

// DefaultRetrievalConfig returns the tuned defaults
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		SimilarityThreshold: 0.2,
		SearchLimit:         20,
		MinQuality:          5,
		SimilarityWeight:    0.7,
		QualityWeight:       0.3,
		TokenBudget:         2500,
		MaxPerResource:      2,
		MaxResults:          6,
		Timeout:             5 * time.Second,
	}
}

// IngestOutcome is returned across the ingestion-trigger boundary
type IngestOutcome struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	ResourceID       string `json:"resource_id,omitempty"`
	LinkID           string `json:"link_id,omitempty"`
	ChunksTotal      int    `json:"chunks_total"`
	EmbeddingsStored int    `json:"embeddings_stored"`
}

// Rejected builds a failed outcome for input that never reached the store
func Rejected(message string) *IngestOutcome {
	return &IngestOutcome{Success: false, Message: message}
}

// Partial reports whether some chunks produced no embedding
func (o *IngestOutcome) Partial() bool {
	return o.Success && o.EmbeddingsStored < o.ChunksTotal
}
