package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/lexis-core/internal/adapters/driven/ai"
	"github.com/custodia-labs/lexis-core/internal/adapters/driven/pdf"
	"github.com/custodia-labs/lexis-core/internal/adapters/driven/postgres"
	postgresqueue "github.com/custodia-labs/lexis-core/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/custodia-labs/lexis-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/custodia-labs/lexis-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/lexis-core/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/lexis-core/internal/adapters/driven/web"
	"github.com/custodia-labs/lexis-core/internal/config"
	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driving"
	"github.com/custodia-labs/lexis-core/internal/core/services"
	"github.com/custodia-labs/lexis-core/internal/normalisers"
	"github.com/custodia-labs/lexis-core/internal/postprocessors"
	"github.com/custodia-labs/lexis-core/internal/runtime"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// stores is the persistence layer selected by database.driver
type stores struct {
	backend    string
	resources  driven.ResourceStore
	embeddings driven.EmbeddingStore
	links      driven.LinkStore
	schedules  driven.SchedulerStore
	db         pinger
	pg         *postgres.DB // nil for sqlite
	close      func() error
}

// app is the fully wired process
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	stores
	redis     *redis.Client
	redisPing pinger
	taskQueue driven.TaskQueue
	lock      driven.DistributedLock
	runtime   *runtime.Services

	ingestor  *services.Ingestor
	linkMgr   *services.LinkManager
	retrieval driving.RetrievalService
	scheduler *services.Scheduler

	closers []func() error
}

type appOptions struct {
	// requireEmbedding fails startup when the provider health check fails
	requireEmbedding bool
	// consumerName identifies this process in the redis consumer group
	consumerName string
}

// openStores connects to the configured database and applies its schema
func openStores(ctx context.Context, c *config.Config) (*stores, error) {
	switch c.Database.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, c.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &stores{
			backend:    config.DriverSQLite,
			resources:  store.ResourceStore(),
			embeddings: store.EmbeddingStore(),
			links:      store.LinkStore(),
			schedules:  store.SchedulerStore(),
			db:         store,
			close:      store.Close,
		}, nil
	default:
		pgCfg := postgres.DefaultConfig(c.Database.URL)
		pgCfg.Dimensions = c.Database.VectorDimensions
		db, err := postgres.Connect(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		if err := db.InitSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &stores{
			backend:    config.DriverPostgres,
			resources:  postgres.NewResourceStore(db),
			embeddings: postgres.NewEmbeddingStore(db),
			links:      postgres.NewLinkStore(db),
			schedules:  postgres.NewSchedulerStore(db),
			db:         db,
			pg:         db,
			close:      db.Close,
		}, nil
	}
}

// buildApp wires stores, queue, embedding provider and services.
// The caller must call Close.
func buildApp(ctx context.Context, c *config.Config, logger *slog.Logger, opts appOptions) (_ *app, err error) {
	a := &app{cfg: c, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	st, err := openStores(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.stores = *st
	a.closers = append(a.closers, st.close)
	logger.Info("store ready", "driver", st.backend)

	backends := runtime.Backends{Store: st.backend}
	if err := a.connectQueue(ctx, opts.consumerName, &backends); err != nil {
		return nil, err
	}

	a.runtime = runtime.NewServices(backends)
	a.closers = append(a.closers, a.runtime.Close)
	if err := a.connectEmbedding(ctx, opts.requireEmbedding); err != nil {
		return nil, err
	}

	embedder := services.NewEmbedder(services.EmbedderConfig{
		Services:    a.runtime,
		BatchSize:   c.Embedding.BatchSize,
		BatchDelay:  c.Embedding.BatchDelay,
		Concurrency: c.Embedding.Concurrency,
		Logger:      logger,
	})

	ingestCfg := services.IngestorConfig{
		Resources:      a.resources,
		Embeddings:     a.embeddings,
		Chunker:        postprocessors.NewChunker(postprocessors.ChunkConfig{MaxChunkSize: c.Chunking.MaxChunkSize}),
		Embedder:       embedder,
		TextWarnTokens: c.Chunking.TextWarnTokens,
		Logger:         logger,
	}
	extractor := pdf.New(pdf.Config{
		PDFToTextPath: c.PDF.PDFToTextPath,
		PDFInfoPath:   c.PDF.PDFInfoPath,
		Logger:        logger,
	})
	if err := extractor.CheckAvailable(); err != nil {
		logger.Warn("pdf ingestion disabled", "error", err)
	} else {
		ingestCfg.PDF = extractor
	}
	a.ingestor = services.NewIngestor(ingestCfg)

	a.linkMgr = services.NewLinkManager(services.LinkManagerConfig{
		Links:     a.links,
		Resources: a.resources,
		Fetcher: web.NewFetcher(web.Config{
			UserAgent: c.Links.UserAgent,
			Timeout:   c.Links.FetchTimeout,
		}),
		Normalisers:     normalisers.DefaultRegistry(),
		Ingestor:        a.ingestor,
		TaskQueue:       a.taskQueue,
		FetchAttempts:   c.Links.FetchAttempts,
		FetchBackoff:    c.Links.FetchBackoff,
		RefreshInterval: c.Links.RefreshInterval,
		Logger:          logger,
	})

	a.retrieval = services.NewRetrievalService(services.RetrievalServiceConfig{
		Embeddings: a.embeddings,
		Embedder:   embedder,
		Config:     c.RetrievalSettings(),
		Logger:     logger,
	})

	if a.taskQueue != nil {
		a.scheduler = services.NewScheduler(services.SchedulerConfig{
			Store:     a.schedules,
			TaskQueue: a.taskQueue,
			Lock:      a.lock,
			Logger:    logger,
		})
		if err := a.scheduler.EnsureSchedule(ctx, domain.DefaultSchedule(c.Links.RefreshInterval)); err != nil {
			return nil, fmt.Errorf("seed schedule: %w", err)
		}
	}

	return a, nil
}

// connectQueue selects redis when configured, otherwise the postgres task
// table. SQLite without redis runs with no queue.
func (a *app) connectQueue(ctx context.Context, consumerName string, backends *runtime.Backends) error {
	if a.cfg.Redis.URL != "" {
		client, err := redisadapter.Connect(ctx, a.cfg.Redis.URL)
		if err != nil {
			return err
		}
		a.redis = client
		a.closers = append(a.closers, client.Close)

		if consumerName == "" {
			consumerName = defaultConsumerName()
		}
		q, err := redisqueue.NewQueue(ctx, client, consumerName)
		if err != nil {
			return fmt.Errorf("create redis queue: %w", err)
		}
		lock := redisadapter.NewLock(client)
		a.closers = append(a.closers, q.Close)
		a.taskQueue, a.lock, a.redisPing = q, lock, lock
		backends.Queue, backends.Lock = "redis", "redis"
		a.logger.Info("task queue ready", "backend", "redis", "consumer", consumerName)
		return nil
	}

	if a.pg != nil {
		a.taskQueue = postgresqueue.NewQueue(a.pg.DB)
		a.lock = postgres.NewAdvisoryLock(a.pg)
		backends.Queue, backends.Lock = "postgres", "postgres"
		a.logger.Info("task queue ready", "backend", "postgres")
		return nil
	}

	a.logger.Info("no task queue configured, stale links are refreshed in-process")
	return nil
}

func (a *app) connectEmbedding(ctx context.Context, require bool) error {
	e := a.cfg.Embedding
	svc, err := ai.NewFactory().Create(driven.EmbeddingSettings{
		Provider:   e.Provider,
		APIKey:     e.APIKey,
		Model:      e.Model,
		BaseURL:    e.BaseURL,
		Dimensions: a.cfg.Database.VectorDimensions,
	})
	if err != nil {
		return fmt.Errorf("create embedding provider: %w", err)
	}
	if svc == nil {
		a.logger.Warn("no embedding provider configured, ingestion and retrieval are disabled")
		return nil
	}

	if require {
		if err := a.runtime.ValidateAndSetEmbedding(ctx, svc); err != nil {
			return fmt.Errorf("embedding provider health check: %w", err)
		}
	} else {
		if err := svc.HealthCheck(ctx); err != nil {
			a.logger.Warn("embedding provider health check failed", "provider", e.Provider, "error", err)
		}
		a.runtime.SetEmbeddingService(svc)
	}
	a.logger.Info("embedding provider ready", "provider", e.Provider, "model", svc.Model(), "dimensions", svc.Dimensions())
	return nil
}

// Close releases every backend in reverse order of creation
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func defaultConsumerName() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "lexis"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}
