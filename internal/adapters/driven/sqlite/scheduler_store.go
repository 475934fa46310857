package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

// schedulerStore implements driven.SchedulerStore.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const scheduledTaskColumns = `id, name, type, interval_ns, enabled, next_run, last_run, last_error`

// GetScheduledTask retrieves a scheduled task by ID.
func (s *schedulerStore) GetScheduledTask(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+scheduledTaskColumns+` FROM scheduled_tasks WHERE id = ?`, id)
	task, err := scanScheduledTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scheduled task: %w", err)
	}
	return task, nil
}

// ListScheduledTasks returns all scheduled tasks, soonest first.
func (s *schedulerStore) ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	return s.query(ctx, `SELECT `+scheduledTaskColumns+` FROM scheduled_tasks ORDER BY next_run, id`)
}

// SaveScheduledTask creates or updates a scheduled task.
func (s *schedulerStore) SaveScheduledTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (id, name, type, interval_ns, enabled, next_run, last_run, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			interval_ns = excluded.interval_ns,
			enabled = excluded.enabled,
			next_run = excluded.next_run,
			last_run = excluded.last_run,
			last_error = excluded.last_error
	`, task.ID, task.Name, string(task.Type), int64(task.Interval), boolToInt(task.Enabled),
		formatTime(task.NextRun), formatNullableTime(task.LastRun), task.LastError)
	if err != nil {
		return fmt.Errorf("saving scheduled task: %w", err)
	}
	return nil
}

// GetDueScheduledTasks returns enabled tasks whose next run has passed.
func (s *schedulerStore) GetDueScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	return s.query(ctx, `
		SELECT `+scheduledTaskColumns+`
		FROM scheduled_tasks
		WHERE enabled = 1 AND next_run <= ?
		ORDER BY next_run, id
	`, formatTime(time.Now()))
}

// UpdateLastRun records a run now and advances next_run by the interval.
func (s *schedulerStore) UpdateLastRun(ctx context.Context, id string, lastError string) error {
	task, err := s.GetScheduledTask(ctx, id)
	if err != nil {
		return err
	}

	task.UpdateNextRun()
	_, err = s.store.db.ExecContext(ctx, `
		UPDATE scheduled_tasks SET last_run = ?, next_run = ?, last_error = ? WHERE id = ?
	`, formatNullableTime(task.LastRun), formatTime(task.NextRun), lastError, id)
	if err != nil {
		return fmt.Errorf("updating scheduled task: %w", err)
	}
	return nil
}

func (s *schedulerStore) query(ctx context.Context, query string, args ...any) ([]*domain.ScheduledTask, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.ScheduledTask
	for rows.Next() {
		task, err := scanScheduledTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scheduled task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scheduled tasks: %w", err)
	}
	return tasks, nil
}

func scanScheduledTask(row rowScanner) (*domain.ScheduledTask, error) {
	var task domain.ScheduledTask
	var taskType, nextRun string
	var lastRun sql.NullString
	var intervalNs int64
	var enabled int

	if err := row.Scan(&task.ID, &task.Name, &taskType, &intervalNs, &enabled, &nextRun, &lastRun, &task.LastError); err != nil {
		return nil, err
	}

	task.Type = domain.TaskType(taskType)
	task.Interval = time.Duration(intervalNs)
	task.Enabled = enabled == 1

	var err error
	if task.NextRun, err = parseTime(nextRun); err != nil {
		return nil, err
	}
	if task.LastRun, err = parseNullableTime(lastRun); err != nil {
		return nil, err
	}
	return &task, nil
}
