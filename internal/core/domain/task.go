package domain

import (
	"time"
)

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeRefreshLink re-fetches a single link and replaces its resources
	TaskTypeRefreshLink TaskType = "refresh_link"
	// TaskTypeRefreshAllLinks fans out refresh_link tasks for stale links
	TaskTypeRefreshAllLinks TaskType = "refresh_all_links"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task is a background job processed by workers
type Task struct {
	ID   string   `json:"id"`
	Type TaskType `json:"type"`

	// Payload contains task-specific data.
	// For refresh_link: {"link_id": "..."}
	Payload map[string]string `json:"payload"`

	Status      TaskStatus `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	Error       string     `json:"error,omitempty"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ScheduledFor time.Time  `json:"scheduled_for"`
}

// NewTask creates a new pending task
func NewTask(taskType TaskType, payload map[string]string) *Task {
	now := time.Now()
	return &Task{
		ID:           NewID(),
		Type:         taskType,
		Payload:      payload,
		Status:       TaskStatusPending,
		MaxAttempts:  3,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// NewRefreshLinkTask creates a task to refresh one link
func NewRefreshLinkTask(linkID string) *Task {
	return NewTask(TaskTypeRefreshLink, map[string]string{"link_id": linkID})
}

// NewRefreshAllLinksTask creates the stale-link sweep task
func NewRefreshAllLinksTask() *Task {
	return NewTask(TaskTypeRefreshAllLinks, nil)
}

// LinkID extracts the link_id from the payload
func (t *Task) LinkID() string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload["link_id"]
}

// CanRetry returns true if the task can be retried
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// IsReady returns true if the task is ready to be processed
func (t *Task) IsReady() bool {
	return t.Status == TaskStatusPending && !time.Now().Before(t.ScheduledFor)
}

// MarkProcessing updates the task to processing state
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Attempts++
}

// MarkCompleted updates the task to completed state
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.Error = ""
}

// MarkFailed updates the task to failed state
func (t *Task) MarkFailed(err string) {
	t.Status = TaskStatusFailed
	t.UpdatedAt = time.Now()
	t.Error = err
}

// Retry puts the task back to pending with exponential backoff (1s, 2s, 4s ... capped at 5m)
func (t *Task) Retry(err string) {
	now := time.Now()
	t.Status = TaskStatusPending
	t.UpdatedAt = now
	t.Error = err

	backoff := time.Duration(1<<t.Attempts) * time.Second
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	t.ScheduledFor = now.Add(backoff)
}

// ScheduledTask is a recurring task configuration
type ScheduledTask struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      TaskType      `json:"type"`
	Interval  time.Duration `json:"interval"`
	Enabled   bool          `json:"enabled"`
	LastRun   *time.Time    `json:"last_run,omitempty"`
	NextRun   time.Time     `json:"next_run"`
	LastError string        `json:"last_error,omitempty"`
}

// NewScheduledTask creates a new scheduled task
func NewScheduledTask(id, name string, taskType TaskType, interval time.Duration) *ScheduledTask {
	return &ScheduledTask{
		ID:       id,
		Name:     name,
		Type:     taskType,
		Interval: interval,
		Enabled:  true,
		NextRun:  time.Now().Add(interval),
	}
}

// IsDue returns true if the scheduled task should be triggered
func (s *ScheduledTask) IsDue() bool {
	return s.Enabled && !time.Now().Before(s.NextRun)
}

// UpdateNextRun records a run and computes the next one
func (s *ScheduledTask) UpdateNextRun() {
	now := time.Now()
	s.LastRun = &now
	s.NextRun = now.Add(s.Interval)
}

// DefaultSchedule returns the scheduled tasks seeded at startup
func DefaultSchedule(linkRefreshInterval time.Duration) []*ScheduledTask {
	return []*ScheduledTask{
		NewScheduledTask("link-refresh", "Link Refresh", TaskTypeRefreshAllLinks, linkRefreshInterval),
	}
}
