package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

func setupQueue(t *testing.T) (*Queue, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q, err := NewQueue(context.Background(), client, "worker-test")
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	return q, client
}

func TestNewQueue_RequiresClient(t *testing.T) {
	if _, err := NewQueue(context.Background(), nil, "w"); err == nil {
		t.Error("expected error for nil client")
	}
}

func TestNewQueue_GroupAlreadyExists(t *testing.T) {
	_, client := setupQueue(t)

	if _, err := NewQueue(context.Background(), client, "worker-2"); err != nil {
		t.Fatalf("second queue on same group should succeed: %v", err)
	}
}

func TestQueue_EnqueueDequeueAck(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	task := domain.NewRefreshLinkTask("link-1")
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got == nil {
		t.Fatal("expected a task")
	}
	if got.ID != task.ID {
		t.Errorf("task ID = %s, want %s", got.ID, task.ID)
	}
	if got.LinkID() != "link-1" {
		t.Errorf("LinkID = %q, want link-1", got.LinkID())
	}
	if got.Status != domain.TaskStatusProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}
	if got.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", got.Attempts)
	}

	if err := q.Ack(ctx, task.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.Status != domain.TaskStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
}

func TestQueue_DequeueEmpty(t *testing.T) {
	q, _ := setupQueue(t)

	got, err := q.DequeueWithTimeout(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected no task, got %s", got.ID)
	}
}

func TestQueue_DelayedTaskHeldBack(t *testing.T) {
	q, client := setupQueue(t)
	ctx := context.Background()

	task := domain.NewRefreshLinkTask("link-1")
	task.ScheduledFor = time.Now().Add(time.Hour)
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got != nil {
		t.Error("delayed task should not be dequeued early")
	}

	n, err := client.ZCard(ctx, scheduledTasks).Result()
	if err != nil {
		t.Fatalf("zcard: %v", err)
	}
	if n != 1 {
		t.Errorf("scheduled set size = %d, want 1", n)
	}
}

func TestQueue_EnqueueBatch(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	tasks := []*domain.Task{
		domain.NewRefreshLinkTask("a"),
		domain.NewRefreshLinkTask("b"),
	}
	if err := q.EnqueueBatch(ctx, tasks); err != nil {
		t.Fatalf("enqueue batch: %v", err)
	}

	seen := map[string]bool{}
	for range tasks {
		got, err := q.DequeueWithTimeout(ctx, 50*time.Millisecond)
		if err != nil || got == nil {
			t.Fatalf("dequeue: task=%v err=%v", got, err)
		}
		seen[got.LinkID()] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("expected both tasks, saw %v", seen)
	}
}

func TestQueue_NackSchedulesRetry(t *testing.T) {
	q, client := setupQueue(t)
	ctx := context.Background()

	task := domain.NewRefreshLinkTask("link-1")
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 50*time.Millisecond); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	if err := q.Nack(ctx, task.ID, "fetch failed"); err != nil {
		t.Fatalf("nack: %v", err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.Status != domain.TaskStatusPending {
		t.Errorf("status = %s, want pending", stored.Status)
	}
	if stored.Error != "fetch failed" {
		t.Errorf("error = %q, want fetch failed", stored.Error)
	}
	if !stored.ScheduledFor.After(time.Now()) {
		t.Error("retry should be scheduled in the future")
	}

	n, _ := client.ZCard(ctx, scheduledTasks).Result()
	if n != 1 {
		t.Errorf("scheduled set size = %d, want 1", n)
	}
}

func TestQueue_NackExhaustedMarksFailed(t *testing.T) {
	q, client := setupQueue(t)
	ctx := context.Background()

	task := domain.NewRefreshLinkTask("link-1")
	task.MaxAttempts = 1
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 50*time.Millisecond); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	if err := q.Nack(ctx, task.ID, "gone"); err != nil {
		t.Fatalf("nack: %v", err)
	}

	stored, _ := q.GetTask(ctx, task.ID)
	if stored.Status != domain.TaskStatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	n, _ := client.ZCard(ctx, scheduledTasks).Result()
	if n != 0 {
		t.Errorf("failed task should not be rescheduled, set size = %d", n)
	}
}

func TestQueue_GetTaskNotFound(t *testing.T) {
	q, _ := setupQueue(t)

	_, err := q.GetTask(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := q.Ack(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ack: expected ErrNotFound, got %v", err)
	}
}

func TestQueue_PromotesDueTasks(t *testing.T) {
	q, client := setupQueue(t)
	ctx := context.Background()

	task := domain.NewRefreshLinkTask("link-1")
	task.ScheduledFor = time.Now().Add(time.Hour)
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// Pull the score into the past
	client.ZAdd(ctx, scheduledTasks, redis.Z{Score: float64(time.Now().Add(-time.Second).Unix()), Member: task.ID})

	got, err := q.DequeueWithTimeout(ctx, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got == nil || got.ID != task.ID {
		t.Fatalf("expected promoted task, got %v", got)
	}
}

func TestQueue_Ping(t *testing.T) {
	q, _ := setupQueue(t)

	if err := q.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
