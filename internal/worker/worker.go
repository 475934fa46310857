package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
	"github.com/custodia-labs/lexis-core/internal/core/services"
)

// LinkRefresher is the part of the link manager the worker drives.
// *services.LinkManager satisfies it.
type LinkRefresher interface {
	RefreshLink(ctx context.Context, linkID string) *domain.IngestOutcome
	EnqueueStaleLinks(ctx context.Context) (int, error)
}

var _ LinkRefresher = (*services.LinkManager)(nil)

// Worker processes tasks from the task queue.
// It refreshes monitored links and fans out the periodic stale-link sweep.
type Worker struct {
	taskQueue driven.TaskQueue
	links     LinkRefresher
	scheduler *services.Scheduler
	logger    *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Links          LinkRefresher
	Scheduler      *services.Scheduler
	Logger         *slog.Logger
	Concurrency    int           // Number of concurrent task processors
	DequeueTimeout time.Duration // How long to wait for a task before checking again
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5 * time.Second
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		links:          cfg.Links,
		scheduler:      cfg.Scheduler,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	if w.scheduler != nil {
		if err := w.scheduler.Start(ctx); err != nil {
			w.logger.Error("failed to start scheduler", "error", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	if w.scheduler != nil {
		w.scheduler.Stop()
	}

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if task == nil {
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

// processTask runs one task and acks or nacks it.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "attempt", task.Attempts)
	logger.Info("processing task")

	startTime := time.Now()
	var err error

	switch task.Type {
	case domain.TaskTypeRefreshLink:
		err = w.handleRefreshLink(ctx, task, logger)
	case domain.TaskTypeRefreshAllLinks:
		err = w.handleRefreshAllLinks(ctx, logger)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		logger.Error("task failed",
			"duration", duration,
			"error", err,
		)

		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", duration)

	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

func (w *Worker) handleRefreshLink(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	linkID := task.LinkID()
	if linkID == "" {
		return fmt.Errorf("link_id not found in task payload")
	}

	outcome := w.links.RefreshLink(ctx, linkID)
	if outcome == nil {
		return fmt.Errorf("refresh returned no outcome")
	}
	if !outcome.Success {
		return fmt.Errorf("refresh failed: %s", outcome.Message)
	}
	if outcome.Partial() {
		logger.Warn("link refreshed with missing embeddings",
			"link_id", linkID,
			"chunks", outcome.ChunksTotal,
			"embeddings", outcome.EmbeddingsStored,
		)
	}
	return nil
}

func (w *Worker) handleRefreshAllLinks(ctx context.Context, logger *slog.Logger) error {
	count, err := w.links.EnqueueStaleLinks(ctx)
	if err != nil {
		return err
	}
	logger.Info("stale links enqueued", "count", count)
	return nil
}

// Health returns health status of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
