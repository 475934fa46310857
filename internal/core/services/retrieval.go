package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driving"
	"github.com/custodia-labs/lexis-core/internal/quality"
	"github.com/custodia-labs/lexis-core/internal/tokens"
)

// Verify interface compliance
var _ driving.RetrievalService = (*retrievalService)(nil)

// retrievalService implements driving.RetrievalService
type retrievalService struct {
	embeddings driven.EmbeddingStore
	embedder   *Embedder
	scorer     *quality.Scorer
	config     domain.RetrievalConfig
	logger     *slog.Logger
}

// RetrievalServiceConfig holds dependencies for the retrieval service.
type RetrievalServiceConfig struct {
	Embeddings driven.EmbeddingStore
	Embedder   *Embedder
	Scorer     *quality.Scorer // Optional, built from Config weights when nil
	Config     domain.RetrievalConfig
	Logger     *slog.Logger
}

// NewRetrievalService creates a new retrieval service
func NewRetrievalService(cfg RetrievalServiceConfig) driving.RetrievalService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scorer := cfg.Scorer
	if scorer == nil {
		scorer = quality.NewScorer(nil, cfg.Config.SimilarityWeight, cfg.Config.QualityWeight)
	}
	return &retrievalService{
		embeddings: cfg.Embeddings,
		embedder:   cfg.Embedder,
		scorer:     scorer,
		config:     cfg.Config,
		logger:     logger,
	}
}

// FindRelevantContent embeds the query, searches the store, re-ranks by
// quality and greedily selects fragments within the token budget.
func (s *retrievalService) FindRelevantContent(ctx context.Context, query string) []domain.Fragment {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.Fragment{}
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	vector, err := s.embedder.EmbedOne(ctx, q)
	if err != nil {
		s.logger.Warn("retrieval: query embedding failed", "kind", domain.KindOf(err), "error", err)
		return []domain.Fragment{}
	}

	candidates, err := s.embeddings.Search(ctx, vector, s.config.SimilarityThreshold, s.config.SearchLimit)
	if err != nil {
		s.logger.Warn("retrieval: similarity search failed", "kind", domain.KindOf(err), "error", err)
		return []domain.Fragment{}
	}
	if len(candidates) == 0 {
		s.logger.Debug("retrieval: no candidates above threshold", "threshold", s.config.SimilarityThreshold)
		return []domain.Fragment{}
	}

	ranked := s.scorer.FilterLowQuality(candidates, s.config.MinQuality)
	selected := SelectFragments(ranked, s.config)

	s.logger.Debug("retrieval complete",
		"candidates", len(candidates),
		"ranked", len(ranked),
		"selected", len(selected),
		"tokens", domain.TotalTokens(selected),
	)
	return selected
}

// SelectFragments walks ranked candidates in order and keeps those that fit
// the result cap, the per-resource cap and the token budget. Repeated
// content is kept once.
func SelectFragments(ranked []domain.ScoredCandidate, cfg domain.RetrievalConfig) []domain.Fragment {
	selected := make([]domain.Fragment, 0, min(len(ranked), max(cfg.MaxResults, 0)))
	perResource := make(map[string]int)
	seen := make(map[string]bool)
	total := 0

	for _, c := range ranked {
		if len(selected) >= cfg.MaxResults {
			break
		}

		hash := c.ContentHash
		if hash == "" {
			hash = domain.HashContent(c.Content)
		}
		if seen[hash] {
			continue
		}
		if perResource[c.ResourceID] >= cfg.MaxPerResource {
			continue
		}

		count := tokens.Estimate(c.Content)
		if total+count > cfg.TokenBudget {
			break
		}

		seen[hash] = true
		perResource[c.ResourceID]++
		total += count
		selected = append(selected, domain.Fragment{
			Content:        c.Content,
			Similarity:     c.Similarity,
			ResourceID:     c.ResourceID,
			TokenCount:     count,
			QualityScore:   c.QualityScore,
			CompositeScore: c.CompositeScore,
		})
	}
	return selected
}
