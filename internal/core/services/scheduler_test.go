package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven/mocks"
)

func TestNewScheduler(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:        mocks.NewMockSchedulerStore(),
		TaskQueue:    mocks.NewMockTaskQueue(),
		PollInterval: time.Minute,
	})

	if s == nil {
		t.Fatal("expected non-nil scheduler")
	}
	if s.interval != time.Minute {
		t.Errorf("expected interval 1m, got %v", s.interval)
	}
	if s.lock != nil {
		t.Error("expected no lock")
	}
}

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
		Lock:      mocks.NewMockDistributedLock(),
	})

	if s.interval != 30*time.Second {
		t.Errorf("expected default interval 30s, got %v", s.interval)
	}
	if s.lockTTL != 60*time.Second {
		t.Errorf("expected default lock TTL 60s, got %v", s.lockTTL)
	}
	if s.lock == nil {
		t.Error("expected lock configured")
	}
	if s.logger == nil {
		t.Error("expected default logger")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:        mocks.NewMockSchedulerStore(),
		TaskQueue:    mocks.NewMockTaskQueue(),
		PollInterval: 100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("failed to start scheduler: %v", err)
	}
	if !s.IsRunning() {
		t.Error("expected scheduler to be running")
	}

	// Start again should be no-op
	if err := s.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("expected scheduler to be stopped")
	}

	// Stop again should be no-op
	s.Stop()
}

func TestScheduler_EnsureSchedule(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	s := NewScheduler(SchedulerConfig{Store: store, TaskQueue: mocks.NewMockTaskQueue()})
	ctx := context.Background()

	if err := s.EnsureSchedule(ctx, domain.DefaultSchedule(time.Hour)); err != nil {
		t.Fatalf("ensure schedule: %v", err)
	}
	got, err := store.GetScheduledTask(ctx, "link-refresh")
	if err != nil {
		t.Fatalf("expected link-refresh task: %v", err)
	}
	if got.Type != domain.TaskTypeRefreshAllLinks {
		t.Errorf("expected refresh_all_links, got %s", got.Type)
	}

	// A second call with a new interval updates it in place
	if err := s.EnsureSchedule(ctx, domain.DefaultSchedule(2*time.Hour)); err != nil {
		t.Fatalf("ensure schedule: %v", err)
	}
	got, _ = store.GetScheduledTask(ctx, "link-refresh")
	if got.Interval != 2*time.Hour {
		t.Errorf("expected interval 2h, got %v", got.Interval)
	}

	tasks, _ := s.ListScheduledTasks(ctx)
	if len(tasks) != 1 {
		t.Errorf("expected 1 scheduled task, got %d", len(tasks))
	}
}

func TestScheduler_Poll(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	queue := mocks.NewMockTaskQueue()
	s := NewScheduler(SchedulerConfig{
		Store:        store,
		TaskQueue:    queue,
		PollInterval: time.Hour,
	})
	ctx := context.Background()

	due := domain.NewScheduledTask("s1", "Due", domain.TaskTypeRefreshAllLinks, time.Hour)
	due.NextRun = time.Now().Add(-time.Minute)
	_ = store.SaveScheduledTask(ctx, due)

	later := domain.NewScheduledTask("s2", "Later", domain.TaskTypeRefreshAllLinks, time.Hour)
	later.NextRun = time.Now().Add(time.Hour)
	_ = store.SaveScheduledTask(ctx, later)

	disabled := domain.NewScheduledTask("s3", "Disabled", domain.TaskTypeRefreshAllLinks, time.Hour)
	disabled.Enabled = false
	disabled.NextRun = time.Now().Add(-time.Minute)
	_ = store.SaveScheduledTask(ctx, disabled)

	s.poll(ctx)

	enqueued := queue.Pending()
	if len(enqueued) != 1 {
		t.Fatalf("expected 1 enqueued task, got %d", len(enqueued))
	}
	if enqueued[0].Type != domain.TaskTypeRefreshAllLinks {
		t.Errorf("expected refresh_all_links, got %s", enqueued[0].Type)
	}

	updated, _ := store.GetScheduledTask(ctx, "s1")
	if updated.LastRun == nil || !updated.NextRun.After(time.Now()) {
		t.Error("expected last run recorded and next run advanced")
	}
}

func TestScheduler_Poll_EnqueueError(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	queue := mocks.NewMockTaskQueue()
	queue.EnqueueErr = errors.New("queue unavailable")

	s := NewScheduler(SchedulerConfig{Store: store, TaskQueue: queue})
	ctx := context.Background()

	due := domain.NewScheduledTask("s1", "Due", domain.TaskTypeRefreshAllLinks, time.Hour)
	due.NextRun = time.Now().Add(-time.Minute)
	_ = store.SaveScheduledTask(ctx, due)

	s.poll(ctx)

	updated, _ := store.GetScheduledTask(ctx, "s1")
	if updated.LastError != "queue unavailable" {
		t.Errorf("expected last error 'queue unavailable', got %q", updated.LastError)
	}
}

func TestScheduler_Poll_LockHeldElsewhere(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	queue := mocks.NewMockTaskQueue()
	lock := mocks.NewMockDistributedLock()
	lock.SetLockHeld("scheduler", time.Minute)

	s := NewScheduler(SchedulerConfig{Store: store, TaskQueue: queue, Lock: lock})
	ctx := context.Background()

	due := domain.NewScheduledTask("s1", "Due", domain.TaskTypeRefreshAllLinks, time.Hour)
	due.NextRun = time.Now().Add(-time.Minute)
	_ = store.SaveScheduledTask(ctx, due)

	s.poll(ctx)

	if n := len(queue.Pending()); n != 0 {
		t.Errorf("expected no tasks while another instance holds the lock, got %d", n)
	}
}

func TestScheduler_Poll_ReleasesLock(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
		Lock:      lock,
	})

	s.poll(context.Background())

	if lock.IsHeld("scheduler") {
		t.Error("expected scheduler lock released after the cycle")
	}
}

func TestScheduler_TriggerNow(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	queue := mocks.NewMockTaskQueue()
	s := NewScheduler(SchedulerConfig{Store: store, TaskQueue: queue})
	ctx := context.Background()

	_ = store.SaveScheduledTask(ctx, domain.NewScheduledTask("s1", "Later", domain.TaskTypeRefreshAllLinks, time.Hour))

	task, err := s.TriggerNow(ctx, "s1")
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if task.Type != domain.TaskTypeRefreshAllLinks {
		t.Errorf("expected refresh_all_links, got %s", task.Type)
	}
	if len(queue.Pending()) != 1 {
		t.Errorf("expected 1 enqueued task, got %d", len(queue.Pending()))
	}
}

func TestScheduler_TriggerNow_NotFound(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
	})

	_, err := s.TriggerNow(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduler_ContextCancellation(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:        mocks.NewMockSchedulerStore(),
		TaskQueue:    mocks.NewMockTaskQueue(),
		PollInterval: 100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("failed to start: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	time.Sleep(200 * time.Millisecond)

	// The loop has exited; Stop still cleans up state
	s.Stop()
	if s.IsRunning() {
		t.Error("expected scheduler to be stopped after context cancellation")
	}
}
