package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driving"
	"github.com/custodia-labs/lexis-core/internal/normalisers"
	"github.com/custodia-labs/lexis-core/internal/postprocessors"
	"github.com/custodia-labs/lexis-core/internal/runtime"
)

// testEnv wires the services against in-memory mocks
type testEnv struct {
	store     *mocks.MockStore
	linkStore *mocks.MockLinkStore
	embedding *mocks.MockEmbeddingService
	fetcher   *mocks.MockPageFetcher
	pdf       *mocks.MockPDFExtractor
	queue     *mocks.MockTaskQueue
	services  *runtime.Services

	embedder  *Embedder
	ingestor  *Ingestor
	links     *LinkManager
	retrieval driving.RetrievalService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:     mocks.NewMockStore(),
		linkStore: mocks.NewMockLinkStore(),
		embedding: mocks.NewMockEmbeddingService(),
		fetcher:   mocks.NewMockPageFetcher(),
		pdf:       &mocks.MockPDFExtractor{},
		queue:     mocks.NewMockTaskQueue(),
		services:  runtime.NewServices(runtime.Backends{Store: "memory"}),
	}
	env.services.SetEmbeddingService(env.embedding)

	logger := discardLogger()
	env.embedder = NewEmbedder(EmbedderConfig{
		Services:   env.services,
		BatchDelay: -1,
		Logger:     logger,
	})
	env.ingestor = NewIngestor(IngestorConfig{
		Resources:  env.store,
		Embeddings: env.store,
		Chunker:    postprocessors.NewChunker(postprocessors.DefaultChunkConfig()),
		Embedder:   env.embedder,
		PDF:        env.pdf,
		Logger:     logger,
	})
	env.links = NewLinkManager(LinkManagerConfig{
		Links:        env.linkStore,
		Resources:    env.store,
		Fetcher:      env.fetcher,
		Normalisers:  normalisers.DefaultRegistry(),
		Ingestor:     env.ingestor,
		TaskQueue:    env.queue,
		FetchBackoff: time.Millisecond,
		Logger:       logger,
	})
	env.retrieval = NewRetrievalService(RetrievalServiceConfig{
		Embeddings: env.store,
		Embedder:   env.embedder,
		Config:     domain.DefaultRetrievalConfig(),
		Logger:     logger,
	})
	return env
}

// seed stores content as an embedding of resourceID using the mock's vectors
func (env *testEnv) seed(resourceID string, position int, content string) {
	env.store.AddEmbedding(domain.NewEmbedding(resourceID, position, content, env.embedding.Vector(content)))
}
