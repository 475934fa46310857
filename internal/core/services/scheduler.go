package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

// Scheduler manages periodic task scheduling.
// It runs alongside the API server and enqueues tasks based on schedules.
//
// For multi-instance deployments, configure a DistributedLock to prevent
// duplicate task enqueuing across instances.
type Scheduler struct {
	store     driven.SchedulerStore
	taskQueue driven.TaskQueue
	lock      driven.DistributedLock
	logger    *slog.Logger

	// Internal state
	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration

	lockTTL time.Duration
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Store        driven.SchedulerStore
	TaskQueue    driven.TaskQueue
	Lock         driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Logger       *slog.Logger
	PollInterval time.Duration // How often to check for due tasks (default: 30s)
	LockTTL      time.Duration // TTL for the distributed lock (default: 60s)
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.PollInterval
	if interval == 0 {
		interval = 30 * time.Second
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 60 * time.Second // 2x poll interval
	}

	return &Scheduler{
		store:     cfg.Store,
		taskQueue: cfg.TaskQueue,
		lock:      cfg.Lock,
		logger:    logger,
		interval:  interval,
		lockTTL:   lockTTL,
	}
}

// EnsureSchedule saves each scheduled task that does not exist yet.
// Existing tasks keep their run history; only the interval is updated.
func (s *Scheduler) EnsureSchedule(ctx context.Context, tasks []*domain.ScheduledTask) error {
	for _, want := range tasks {
		existing, err := s.store.GetScheduledTask(ctx, want.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if err := s.store.SaveScheduledTask(ctx, want); err != nil {
				return fmt.Errorf("failed to save scheduled task %s: %w", want.ID, err)
			}
			s.logger.Info("scheduled task created", "scheduled_id", want.ID, "interval", want.Interval)
		case err != nil:
			return fmt.Errorf("failed to get scheduled task %s: %w", want.ID, err)
		case existing.Interval != want.Interval:
			existing.Interval = want.Interval
			if existing.LastRun != nil {
				existing.NextRun = existing.LastRun.Add(want.Interval)
			}
			if err := s.store.SaveScheduledTask(ctx, existing); err != nil {
				return fmt.Errorf("failed to update scheduled task %s: %w", want.ID, err)
			}
		}
	}
	return nil
}

// Start begins the scheduler loop.
// It runs until Stop is called or context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("scheduler starting", "poll_interval", s.interval)

	go s.run(ctx)

	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for the scheduler to finish
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether the loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

const schedulerLockName = "scheduler"

// poll enqueues due schedules. With a lock configured, only the instance
// holding it polls; a lock backend error skips the cycle.
func (s *Scheduler) poll(ctx context.Context) {
	if s.lock == nil {
		s.enqueueDue(ctx)
		return
	}

	acquired, err := s.lock.Acquire(ctx, schedulerLockName, s.lockTTL)
	switch {
	case err != nil:
		s.logger.Warn("failed to acquire scheduler lock", "error", err)
		return
	case !acquired:
		s.logger.Debug("scheduler lock held by another instance, skipping cycle")
		return
	}
	defer func() {
		if err := s.lock.Release(ctx, schedulerLockName); err != nil {
			s.logger.Warn("failed to release scheduler lock", "error", err)
		}
	}()

	s.enqueueDue(ctx)
}

func (s *Scheduler) enqueueDue(ctx context.Context) {
	due, err := s.store.GetDueScheduledTasks(ctx)
	if err != nil {
		s.logger.Error("failed to get due scheduled tasks", "error", err)
		return
	}

	for _, scheduled := range due {
		if !scheduled.Enabled || !scheduled.IsDue() {
			continue
		}

		var lastError string
		task, err := s.enqueue(ctx, scheduled)
		if err != nil {
			s.logger.Error("failed to enqueue scheduled task", "scheduled_id", scheduled.ID, "error", err)
			lastError = err.Error()
		} else {
			s.logger.Info("enqueued scheduled task",
				"scheduled_id", scheduled.ID, "task_id", task.ID, "task_type", task.Type)
		}

		// next_run advances even when the enqueue failed.
		if err := s.store.UpdateLastRun(ctx, scheduled.ID, lastError); err != nil {
			s.logger.Warn("failed to record scheduled run", "scheduled_id", scheduled.ID, "error", err)
		}
	}
}

// enqueue pushes a queue task for the schedule. Link refresh schedules carry
// no payload; the worker fans refresh_all_links out itself.
func (s *Scheduler) enqueue(ctx context.Context, scheduled *domain.ScheduledTask) (*domain.Task, error) {
	task := domain.NewTask(scheduled.Type, nil)
	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ListScheduledTasks lists all scheduled tasks.
func (s *Scheduler) ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	return s.store.ListScheduledTasks(ctx)
}

// TriggerNow immediately enqueues a scheduled task (ignoring schedule).
func (s *Scheduler) TriggerNow(ctx context.Context, id string) (*domain.Task, error) {
	scheduled, err := s.store.GetScheduledTask(ctx, id)
	if err != nil {
		return nil, err
	}

	task, err := s.enqueue(ctx, scheduled)
	if err != nil {
		return nil, err
	}

	s.logger.Info("manually triggered scheduled task",
		"scheduled_id", scheduled.ID,
		"task_id", task.ID,
	)

	return task, nil
}
