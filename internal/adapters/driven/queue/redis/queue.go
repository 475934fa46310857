package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

const (
	taskStream     = "lexis:tasks"
	taskGroup      = "lexis:workers"
	scheduledTasks = "lexis:scheduled"

	taskKeyPrefix = "lexis:task:"
	msgKeySuffix  = ":msg"

	consumerPrefix = "worker-"

	// How long a delivered message may stay unacknowledged before another
	// worker claims it
	claimTimeout = 5 * time.Minute

	taskTTL = 24 * time.Hour
)

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

// Queue implements TaskQueue using Redis Streams.
// Delayed tasks wait in a sorted set until they are due and are then
// promoted onto the stream.
type Queue struct {
	client       *redis.Client
	consumerName string
}

// NewQueue creates a new Redis-backed task queue.
// The consumerName should be unique per worker instance (e.g., hostname + PID).
func NewQueue(ctx context.Context, client *redis.Client, consumerName string) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumerName == "" {
		consumerName = consumerPrefix + strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	q := &Queue{
		client:       client,
		consumerName: consumerName,
	}

	err := q.client.XGroupCreateMkStream(ctx, taskStream, taskGroup, "0").Err()
	if err != nil && !isGroupExistsError(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return q, nil
}

// Enqueue adds a task to the queue for processing.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	return q.EnqueueBatch(ctx, []*domain.Task{task})
}

// EnqueueBatch adds multiple tasks to the queue in one pipeline.
func (q *Queue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	pipe := q.client.TxPipeline()
	now := time.Now()

	for _, task := range tasks {
		if task == nil {
			return errors.New("task is required")
		}

		taskData, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("failed to marshal task %s: %w", task.ID, err)
		}
		pipe.Set(ctx, taskKeyPrefix+task.ID, taskData, taskTTL)

		if task.ScheduledFor.After(now) {
			pipe.ZAdd(ctx, scheduledTasks, redis.Z{
				Score:  float64(task.ScheduledFor.Unix()),
				Member: task.ID,
			})
		} else {
			pipe.XAdd(ctx, streamArgs(task))
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue tasks: %w", err)
	}
	return nil
}

// DequeueWithTimeout retrieves the next available task, blocking on the
// stream for up to timeout.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout time.Duration) (*domain.Task, error) {
	// Best effort: a failed promotion is retried on the next call
	_ = q.promoteScheduledTasks(ctx)

	task, err := q.claimAbandonedTask(ctx)
	if err == nil && task != nil {
		return task, nil
	}

	block := timeout
	if block <= 0 {
		// go-redis omits BLOCK for negative durations
		block = -1
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    taskGroup,
		Consumer: q.consumerName,
		Streams:  []string{taskStream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	return q.startMessage(ctx, streams[0].Messages[0])
}

// startMessage loads the task behind a stream message and marks it processing.
// Messages without a readable task are dropped.
func (q *Queue) startMessage(ctx context.Context, msg redis.XMessage) (*domain.Task, error) {
	taskID, ok := msg.Values["task_id"].(string)
	if !ok {
		q.dropMessage(ctx, msg.ID)
		return nil, nil
	}

	task, err := q.GetTask(ctx, taskID)
	if errors.Is(err, domain.ErrNotFound) {
		q.dropMessage(ctx, msg.ID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task data: %w", err)
	}

	task.MarkProcessing()
	taskData, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, taskKeyPrefix+task.ID, taskData, taskTTL)
	pipe.Set(ctx, taskKeyPrefix+task.ID+msgKeySuffix, msg.ID, taskTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to mark task processing: %w", err)
	}
	return task, nil
}

func (q *Queue) dropMessage(ctx context.Context, msgID string) {
	q.client.XAck(ctx, taskStream, taskGroup, msgID)
	q.client.XDel(ctx, taskStream, msgID)
}

// Ack acknowledges successful completion of a task.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	msgID, err := q.client.Get(ctx, taskKeyPrefix+taskID+msgKeySuffix).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get message ID: %w", err)
	}

	task.MarkCompleted()
	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	if msgID != "" {
		pipe.XAck(ctx, taskStream, taskGroup, msgID)
		pipe.XDel(ctx, taskStream, msgID)
	}
	pipe.Set(ctx, taskKeyPrefix+taskID, taskData, taskTTL)
	pipe.Del(ctx, taskKeyPrefix+taskID+msgKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ack task: %w", err)
	}
	return nil
}

// Nack acknowledges the delivery and either schedules a retry with backoff
// or marks the task failed.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	msgID, err := q.client.Get(ctx, taskKeyPrefix+taskID+msgKeySuffix).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get message ID: %w", err)
	}

	retry := task.CanRetry()
	if retry {
		task.Retry(reason)
	} else {
		task.MarkFailed(reason)
	}
	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	if msgID != "" {
		pipe.XAck(ctx, taskStream, taskGroup, msgID)
		pipe.XDel(ctx, taskStream, msgID)
	}
	pipe.Set(ctx, taskKeyPrefix+taskID, taskData, taskTTL)
	if retry {
		pipe.ZAdd(ctx, scheduledTasks, redis.Z{
			Score:  float64(task.ScheduledFor.Unix()),
			Member: task.ID,
		})
	}
	pipe.Del(ctx, taskKeyPrefix+taskID+msgKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to nack task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	data, err := q.client.Get(ctx, taskKeyPrefix+taskID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// Stats returns queue statistics.
// Completed and failed counts need a key scan and are approximate.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	stats := &driven.QueueStats{}

	groups, err := q.client.XInfoGroups(ctx, taskStream).Result()
	if err != nil && !isStreamNotExistsError(err) {
		return nil, fmt.Errorf("failed to get group info: %w", err)
	}
	for _, group := range groups {
		if group.Name == taskGroup {
			stats.ProcessingCount = group.Pending
		}
	}

	streamLen, err := q.client.XLen(ctx, taskStream).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stream length: %w", err)
	}
	stats.PendingCount = streamLen - stats.ProcessingCount

	scheduledCount, err := q.client.ZCard(ctx, scheduledTasks).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled count: %w", err)
	}
	stats.PendingCount += scheduledCount

	iter := q.client.Scan(ctx, 0, taskKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, msgKeySuffix) {
			continue
		}
		data, err := q.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var task domain.Task
		if json.Unmarshal(data, &task) != nil {
			continue
		}
		switch task.Status {
		case domain.TaskStatusCompleted:
			stats.CompletedCount++
		case domain.TaskStatusFailed:
			stats.FailedCount++
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan tasks: %w", err)
	}

	return stats, nil
}

// Ping checks if the queue backend is healthy.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close is a no-op; the Redis client is shared.
func (q *Queue) Close() error {
	return nil
}

// promoteScheduledTasks moves due scheduled tasks onto the stream.
func (q *Queue) promoteScheduledTasks(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, scheduledTasks, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(time.Now().Unix(), 10),
	}).Result()
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	pipe := q.client.TxPipeline()
	for _, taskID := range due {
		// ZRem first so two workers promoting concurrently add one message
		removed, err := q.client.ZRem(ctx, scheduledTasks, taskID).Result()
		if err != nil || removed == 0 {
			continue
		}
		task, err := q.GetTask(ctx, taskID)
		if err != nil {
			continue
		}
		pipe.XAdd(ctx, streamArgs(task))
	}

	_, err = pipe.Exec(ctx)
	return err
}

// claimAbandonedTask claims a message another worker left unacknowledged
// for longer than claimTimeout.
func (q *Queue) claimAbandonedTask(ctx context.Context) (*domain.Task, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: taskStream,
		Group:  taskGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
		Idle:   claimTimeout,
	}).Result()
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   taskStream,
			Group:    taskGroup,
			Consumer: q.consumerName,
			MinIdle:  claimTimeout,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(claimed) == 0 {
			continue
		}

		task, err := q.startMessage(ctx, claimed[0])
		if err != nil || task == nil {
			continue
		}
		return task, nil
	}

	return nil, nil
}

func streamArgs(task *domain.Task) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: taskStream,
		Values: map[string]any{
			"task_id": task.ID,
			"type":    string(task.Type),
		},
	}
}

func isGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func isStreamNotExistsError(err error) bool {
	return err != nil && (errors.Is(err, redis.Nil) ||
		strings.Contains(err.Error(), "no such key") ||
		strings.Contains(err.Error(), "requires the key to exist"))
}
