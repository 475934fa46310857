package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/runtime"
)

// IndexedVector is an embedding tagged with the index of its input text
type IndexedVector struct {
	Index  int
	Text   string
	Vector []float32
}

// BatchSink receives each successfully embedded batch
type BatchSink func(ctx context.Context, batch []IndexedVector) error

// EmbedReport summarizes a batched embedding run
type EmbedReport struct {
	Total         int
	Embedded      int
	Batches       int
	FailedBatches int
}

// Embedder calls the embedding provider in rate-paced batches. A failed
// batch is logged and skipped; the remaining batches still run.
type Embedder struct {
	services    *runtime.Services
	batchSize   int
	batchDelay  time.Duration
	concurrency int
	logger      *slog.Logger
}

// EmbedderConfig holds configuration for the Embedder.
type EmbedderConfig struct {
	Services    *runtime.Services
	BatchSize   int           // Texts per provider call (default: 20)
	BatchDelay  time.Duration // Minimum spacing between batch starts (default: 500ms, negative disables)
	Concurrency int           // Batches in flight (default: 1)
	Logger      *slog.Logger
}

// NewEmbedder creates a new Embedder.
func NewEmbedder(cfg EmbedderConfig) *Embedder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}
	delay := cfg.BatchDelay
	if delay == 0 {
		delay = 500 * time.Millisecond
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Embedder{
		services:    cfg.Services,
		batchSize:   batchSize,
		batchDelay:  delay,
		concurrency: concurrency,
		logger:      logger,
	}
}

// EmbedBatches embeds texts batch by batch and hands each successful batch
// to sink. Vectors carry the index of their input text, so results are
// independent of the order in which concurrent batches finish.
func (e *Embedder) EmbedBatches(ctx context.Context, texts []string, sink BatchSink) EmbedReport {
	report := EmbedReport{Total: len(texts)}
	if len(texts) == 0 {
		return report
	}
	report.Batches = (len(texts) + e.batchSize - 1) / e.batchSize

	svc := e.services.EmbeddingService()
	if svc == nil {
		e.logger.Warn("no embedding service configured, skipping embeddings", "texts", len(texts))
		report.FailedBatches = report.Batches
		return report
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if e.batchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(e.batchDelay), 1)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.concurrency)

	for b := 0; b < report.Batches; b++ {
		start := b * e.batchSize
		end := min(start+e.batchSize, len(texts))

		if err := limiter.Wait(ctx); err != nil {
			e.logger.Warn("embedding cancelled", "batch", b, "remaining_batches", report.Batches-b, "error", err)
			mu.Lock()
			report.FailedBatches += report.Batches - b
			mu.Unlock()
			break
		}

		g.Go(func() error {
			embedded, err := e.embedBatch(ctx, texts, start, end, sink)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.FailedBatches++
				e.logger.Warn("embedding batch failed",
					"batch", b,
					"first_index", start,
					"size", end-start,
					"kind", domain.KindOf(err),
					"error", err,
				)
				return nil
			}
			report.Embedded += embedded
			return nil
		})
	}
	_ = g.Wait()

	return report
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string, start, end int, sink BatchSink) (int, error) {
	svc := e.services.EmbeddingService()
	if svc == nil {
		return 0, domain.ErrServiceUnavailable
	}

	vecs, err := svc.Embed(ctx, texts[start:end])
	if err != nil {
		return 0, err
	}
	if len(vecs) != end-start {
		return 0, domain.NewExternalError(domain.KindBadResponse, "embed",
			fmt.Sprintf("expected %d vectors, got %d", end-start, len(vecs)), nil)
	}

	batch := make([]IndexedVector, 0, len(vecs))
	for i, v := range vecs {
		if len(v) == 0 {
			e.logger.Warn("provider returned no vector for text", "index", start+i)
			continue
		}
		batch = append(batch, IndexedVector{Index: start + i, Text: texts[start+i], Vector: v})
	}
	if len(batch) == 0 {
		return 0, nil
	}

	if sink != nil {
		if err := sink(ctx, batch); err != nil {
			return 0, fmt.Errorf("failed to store batch: %w", err)
		}
	}
	return len(batch), nil
}

// Embed returns one vector per text in input order. Texts whose batch
// failed get a nil vector.
func (e *Embedder) Embed(ctx context.Context, texts []string) [][]float32 {
	result := make([][]float32, len(texts))
	var mu sync.Mutex
	e.EmbedBatches(ctx, texts, func(_ context.Context, batch []IndexedVector) error {
		mu.Lock()
		defer mu.Unlock()
		for _, iv := range batch {
			result[iv.Index] = iv.Vector
		}
		return nil
	})
	return result
}

// EmbedOne embeds a single text without batching or pacing. Newlines are
// replaced with spaces first.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	svc := e.services.EmbeddingService()
	if svc == nil {
		return nil, domain.ErrServiceUnavailable
	}
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)

	vec, err := svc.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, domain.NewExternalError(domain.KindBadResponse, "embed", "empty query vector", nil)
	}
	return vec, nil
}
