package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

var (
	_ driven.TaskQueue      = (*MockTaskQueue)(nil)
	_ driven.SchedulerStore = (*MockSchedulerStore)(nil)
)

// MockTaskQueue is an in-memory FIFO task queue
type MockTaskQueue struct {
	mu      sync.Mutex
	pending []*domain.Task
	tasks   map[string]*domain.Task
	acked   []string
	nacked  []string

	EnqueueErr error
}

// NewMockTaskQueue creates a new MockTaskQueue
func NewMockTaskQueue() *MockTaskQueue {
	return &MockTaskQueue{tasks: make(map[string]*domain.Task)}
}

func (m *MockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	return m.EnqueueBatch(ctx, []*domain.Task{task})
}

func (m *MockTaskQueue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	if m.EnqueueErr != nil {
		return m.EnqueueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		m.pending = append(m.pending, t)
		m.tasks[t.ID] = t
	}
	return nil
}

func (m *MockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout time.Duration) (*domain.Task, error) {
	deadline := time.Now().Add(timeout)
	for {
		m.mu.Lock()
		if len(m.pending) > 0 {
			t := m.pending[0]
			m.pending = m.pending[1:]
			t.MarkProcessing()
			m.mu.Unlock()
			return t, nil
		}
		m.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (m *MockTaskQueue) Ack(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	t.MarkCompleted()
	m.acked = append(m.acked, taskID)
	return nil
}

func (m *MockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	m.nacked = append(m.nacked, taskID)
	if t.CanRetry() {
		t.Retry(reason)
		m.pending = append(m.pending, t)
	} else {
		t.MarkFailed(reason)
	}
	return nil
}

func (m *MockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (m *MockTaskQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &driven.QueueStats{
		PendingCount:   int64(len(m.pending)),
		CompletedCount: int64(len(m.acked)),
	}, nil
}

func (m *MockTaskQueue) Ping(ctx context.Context) error { return nil }
func (m *MockTaskQueue) Close() error                   { return nil }

// Pending returns the tasks waiting to be dequeued
func (m *MockTaskQueue) Pending() []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Task(nil), m.pending...)
}

// Acked returns the IDs of acknowledged tasks
func (m *MockTaskQueue) Acked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

// Nacked returns the IDs of negatively acknowledged tasks
func (m *MockTaskQueue) Nacked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.nacked...)
}

// MockSchedulerStore keeps scheduled tasks in memory
type MockSchedulerStore struct {
	mu    sync.Mutex
	tasks map[string]*domain.ScheduledTask
}

// NewMockSchedulerStore creates a new MockSchedulerStore
func NewMockSchedulerStore() *MockSchedulerStore {
	return &MockSchedulerStore{tasks: make(map[string]*domain.ScheduledTask)}
}

func (m *MockSchedulerStore) ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		cp := *t
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MockSchedulerStore) GetScheduledTask(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockSchedulerStore) SaveScheduledTask(ctx context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *MockSchedulerStore) GetDueScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*domain.ScheduledTask
	for _, t := range m.tasks {
		if t.IsDue() {
			cp := *t
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (m *MockSchedulerStore) UpdateLastRun(ctx context.Context, id string, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.UpdateNextRun()
	t.LastError = lastError
	return nil
}
