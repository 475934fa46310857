package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

// TaskQueue handles background task queuing.
// Implementations use Redis Streams (preferred) or a Postgres table (fallback).
type TaskQueue interface {
	// Enqueue adds a task to the queue. Tasks scheduled in the future are
	// held back until their ScheduledFor time.
	Enqueue(ctx context.Context, task *domain.Task) error

	// EnqueueBatch adds multiple tasks atomically
	EnqueueBatch(ctx context.Context, tasks []*domain.Task) error

	// DequeueWithTimeout retrieves the next ready task, waiting up to timeout.
	// Returns nil, nil if the timeout is reached with no task available.
	// The returned task is marked processing and hidden from other workers.
	DequeueWithTimeout(ctx context.Context, timeout time.Duration) (*domain.Task, error)

	// Ack acknowledges successful completion of a task
	Ack(ctx context.Context, taskID string) error

	// Nack returns the task to the queue with backoff, or marks it failed
	// once its attempts are exhausted
	Nack(ctx context.Context, taskID string, reason string) error

	// GetTask retrieves a task by ID
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// Stats returns queue statistics
	Stats(ctx context.Context) (*QueueStats, error)

	// Ping checks if the queue backend is healthy
	Ping(ctx context.Context) error

	// Close cleans up resources
	Close() error
}

// QueueStats contains queue statistics
type QueueStats struct {
	PendingCount    int64 `json:"pending_count"`
	ProcessingCount int64 `json:"processing_count"`
	CompletedCount  int64 `json:"completed_count"`
	FailedCount     int64 `json:"failed_count"`
}

// SchedulerStore persists recurring task configuration
type SchedulerStore interface {
	// ListScheduledTasks retrieves all scheduled tasks
	ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error)

	// GetScheduledTask retrieves a scheduled task by ID.
	// Returns domain.ErrNotFound if missing.
	GetScheduledTask(ctx context.Context, id string) (*domain.ScheduledTask, error)

	// SaveScheduledTask creates or updates a scheduled task
	SaveScheduledTask(ctx context.Context, task *domain.ScheduledTask) error

	// GetDueScheduledTasks retrieves enabled tasks whose next run has passed
	GetDueScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error)

	// UpdateLastRun records a run and advances the next run time
	UpdateLastRun(ctx context.Context, id string, lastError string) error
}
