package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/runtime"
)

const feriasQuery = "direito a férias"

func TestFindRelevantContent_DiversityCap(t *testing.T) {
	env := newTestEnv(t)
	for r := 0; r < 5; r++ {
		for p := 0; p < 4; p++ {
			env.seed(fmt.Sprintf("res-%d", r), p,
				fmt.Sprintf("O empregado tem direito a férias anuais, regra %d do recurso %d.", p, r))
		}
	}

	fragments := env.retrieval.FindRelevantContent(context.Background(), feriasQuery)

	require.NotEmpty(t, fragments)
	perResource := make(map[string]int)
	for _, f := range fragments {
		perResource[f.ResourceID]++
	}
	for id, n := range perResource {
		assert.LessOrEqual(t, n, 2, "resource %s over the diversity cap", id)
	}
}

func TestFindRelevantContent_TokenBudget(t *testing.T) {
	env := newTestEnv(t)
	// 692 words each, about 900 estimated tokens
	filler := strings.Repeat("direito a férias ", 230)
	for r := 0; r < 4; r++ {
		env.seed(fmt.Sprintf("res-%d", r), 0, fmt.Sprintf("Regra %d. %s", r, filler))
	}

	fragments := env.retrieval.FindRelevantContent(context.Background(), feriasQuery)

	require.Len(t, fragments, 2, "a third fragment would exceed the budget")
	assert.LessOrEqual(t, domain.TotalTokens(fragments), 2500)
}

func TestFindRelevantContent_ResultCap(t *testing.T) {
	env := newTestEnv(t)
	for r := 0; r < 10; r++ {
		env.seed(fmt.Sprintf("res-%d", r), 0,
			fmt.Sprintf("Todo empregado tem direito a férias, conforme a regra %d.", r))
	}

	fragments := env.retrieval.FindRelevantContent(context.Background(), feriasQuery)

	assert.Len(t, fragments, 6)
}

func TestFindRelevantContent_Degradation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(env *testEnv) context.Context
	}{
		{
			name: "embedding provider fails",
			setup: func(env *testEnv) context.Context {
				env.embedding.SetFailNext(true)
				return context.Background()
			},
		},
		{
			name: "search fails",
			setup: func(env *testEnv) context.Context {
				env.store.SearchErr = errors.New("connection reset")
				return context.Background()
			},
		},
		{
			name: "no embedding provider",
			setup: func(env *testEnv) context.Context {
				env.services.SetEmbeddingService(nil)
				return context.Background()
			},
		},
		{
			name: "context cancelled",
			setup: func(env *testEnv) context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seed("res-1", 0, "O empregado tem direito a férias anuais remuneradas.")
			ctx := tt.setup(env)

			fragments := env.retrieval.FindRelevantContent(ctx, feriasQuery)

			assert.NotNil(t, fragments)
			assert.Empty(t, fragments)
		})
	}
}

func TestFindRelevantContent_EmptyQuery(t *testing.T) {
	env := newTestEnv(t)

	fragments := env.retrieval.FindRelevantContent(context.Background(), "   ")

	assert.NotNil(t, fragments)
	assert.Empty(t, fragments)
	assert.Empty(t, env.embedding.Queries(), "no provider call for an empty query")
}

func TestFindRelevantContent_NormalizesQuery(t *testing.T) {
	env := newTestEnv(t)

	env.retrieval.FindRelevantContent(context.Background(), "  Direito a FÉRIAS \n")

	assert.Equal(t, []string{feriasQuery}, env.embedding.Queries())
}

func TestFindRelevantContent_DeduplicatesContent(t *testing.T) {
	env := newTestEnv(t)
	content := "O empregado tem direito a férias após doze meses."
	env.seed("res-1", 0, content)
	env.seed("res-2", 0, content)

	fragments := env.retrieval.FindRelevantContent(context.Background(), feriasQuery)

	require.Len(t, fragments, 1)
	assert.Equal(t, "res-1", fragments[0].ResourceID)
}

func TestFindRelevantContent_FiltersLowQuality(t *testing.T) {
	env := newTestEnv(t)
	env.seed("res-ui", 0, "clique {direito} [a] <férias> ||")
	env.seed("res-law", 0, "Conforme a CLT, o empregado tem direito a férias.")

	fragments := env.retrieval.FindRelevantContent(context.Background(), feriasQuery)

	require.Len(t, fragments, 1)
	assert.Equal(t, "res-law", fragments[0].ResourceID)
	assert.Equal(t, 10, fragments[0].QualityScore)
}

func TestFindRelevantContent_Deterministic(t *testing.T) {
	env := newTestEnv(t)
	for r := 0; r < 6; r++ {
		for p := 0; p < 3; p++ {
			env.seed(fmt.Sprintf("res-%d", r), p, fmt.Sprintf("Direito a férias e descanso, item %d.", p))
		}
	}

	first := env.retrieval.FindRelevantContent(context.Background(), feriasQuery)
	second := env.retrieval.FindRelevantContent(context.Background(), feriasQuery)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestFindRelevantContent_FragmentMetadata(t *testing.T) {
	env := newTestEnv(t)
	content := "O empregado tem direito a férias anuais."
	env.seed("res-1", 0, content)

	fragments := env.retrieval.FindRelevantContent(context.Background(), feriasQuery)

	require.Len(t, fragments, 1)
	f := fragments[0]
	assert.Equal(t, content, f.Content)
	assert.Greater(t, f.Similarity, 0.2)
	assert.Equal(t, 10, f.TokenCount)
	assert.InDelta(t, 0.7*f.Similarity+0.3, f.CompositeScore, 1e-9)
}

func TestNewRetrievalService_NoEmbedder(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRetrievalService(RetrievalServiceConfig{
		Embeddings: env.store,
		Embedder:   NewEmbedder(EmbedderConfig{Services: runtime.NewServices(runtime.Backends{})}),
		Config:     domain.DefaultRetrievalConfig(),
		Logger:     discardLogger(),
	})

	assert.Empty(t, svc.FindRelevantContent(context.Background(), feriasQuery))
}

func scored(resourceID, content string, composite float64) domain.ScoredCandidate {
	return domain.ScoredCandidate{
		Candidate: domain.Candidate{
			Content:     content,
			Similarity:  composite,
			ResourceID:  resourceID,
			ContentHash: domain.HashContent(content),
		},
		QualityScore:   10,
		CompositeScore: composite,
	}
}

func TestSelectFragments(t *testing.T) {
	cfg := domain.DefaultRetrievalConfig()

	t.Run("skips capped resource and continues", func(t *testing.T) {
		ranked := []domain.ScoredCandidate{
			scored("a", "um", 0.9),
			scored("a", "dois", 0.8),
			scored("a", "três", 0.7),
			scored("b", "quatro", 0.6),
		}
		got := SelectFragments(ranked, cfg)
		require.Len(t, got, 3)
		assert.Equal(t, "quatro", got[2].Content)
	})

	t.Run("stops at the first fragment over budget", func(t *testing.T) {
		small := cfg
		small.TokenBudget = 5
		ranked := []domain.ScoredCandidate{
			scored("a", "um dois três", 0.9),      // 4 tokens
			scored("b", "quatro cinco seis", 0.8), // 4 tokens, would exceed
			scored("c", "sete", 0.7),              // 2 tokens, never reached
		}
		got := SelectFragments(ranked, small)
		require.Len(t, got, 1)
		assert.Equal(t, 4, got[0].TokenCount)
	})

	t.Run("duplicate skipped by cap is not marked seen", func(t *testing.T) {
		ranked := []domain.ScoredCandidate{
			scored("a", "um", 0.9),
			scored("a", "dois", 0.8),
			scored("a", "repetido", 0.7),
			scored("b", "repetido", 0.6),
		}
		got := SelectFragments(ranked, cfg)
		require.Len(t, got, 3)
		assert.Equal(t, "b", got[2].ResourceID)
	})

	t.Run("hash computed when missing", func(t *testing.T) {
		first := scored("a", "igual", 0.9)
		second := scored("b", "igual", 0.8)
		second.ContentHash = ""
		got := SelectFragments([]domain.ScoredCandidate{first, second}, cfg)
		assert.Len(t, got, 1)
	})

	t.Run("empty input", func(t *testing.T) {
		got := SelectFragments(nil, cfg)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
