package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

var _ driven.SchedulerStore = (*SchedulerStore)(nil)

const scheduledTaskColumns = `id, name, type, interval_ns, enabled, next_run, last_run, last_error`

// SchedulerStore persists recurring link-refresh schedules in PostgreSQL
type SchedulerStore struct {
	db *DB
}

// NewSchedulerStore creates a new SchedulerStore
func NewSchedulerStore(db *DB) *SchedulerStore {
	return &SchedulerStore{db: db}
}

func (s *SchedulerStore) GetScheduledTask(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+scheduledTaskColumns+` FROM scheduled_tasks WHERE id = $1`, id)

	task, err := scanScheduledTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled task: %w", err)
	}
	return task, nil
}

func (s *SchedulerStore) ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	return s.queryScheduledTasks(ctx,
		`SELECT `+scheduledTaskColumns+` FROM scheduled_tasks ORDER BY next_run`)
}

// GetDueScheduledTasks returns enabled schedules whose next_run has passed
func (s *SchedulerStore) GetDueScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	return s.queryScheduledTasks(ctx,
		`SELECT `+scheduledTaskColumns+` FROM scheduled_tasks
		 WHERE enabled AND next_run <= $1
		 ORDER BY next_run`, time.Now())
}

// SaveScheduledTask upserts by id
func (s *SchedulerStore) SaveScheduledTask(ctx context.Context, task *domain.ScheduledTask) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (`+scheduledTaskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			interval_ns = EXCLUDED.interval_ns,
			enabled = EXCLUDED.enabled,
			next_run = EXCLUDED.next_run,
			last_run = EXCLUDED.last_run,
			last_error = EXCLUDED.last_error`,
		task.ID, task.Name, string(task.Type), int64(task.Interval), task.Enabled,
		task.NextRun, NullTime(task.LastRun), task.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to save scheduled task: %w", err)
	}
	return nil
}

// UpdateLastRun stamps the run and moves next_run forward by the stored interval
func (s *SchedulerStore) UpdateLastRun(ctx context.Context, id string, lastError string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_tasks
		SET last_run = $1,
			next_run = $1::timestamptz + (interval_ns / 1000) * INTERVAL '1 microsecond',
			last_error = $2
		WHERE id = $3`,
		time.Now(), lastError, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update last run: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SchedulerStore) queryScheduledTasks(ctx context.Context, query string, args ...any) ([]*domain.ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.ScheduledTask
	for rows.Next() {
		task, err := scanScheduledTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanScheduledTask(row rowScanner) (*domain.ScheduledTask, error) {
	var (
		task       domain.ScheduledTask
		intervalNs int64
		lastRun    sql.NullTime
		lastError  sql.NullString
	)
	if err := row.Scan(&task.ID, &task.Name, &task.Type, &intervalNs, &task.Enabled,
		&task.NextRun, &lastRun, &lastError); err != nil {
		return nil, err
	}
	task.Interval = time.Duration(intervalNs)
	task.LastRun = TimePtr(lastRun)
	task.LastError = lastError.String
	return &task, nil
}
