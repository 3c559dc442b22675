package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/tasks"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/go-redis/redis/v8"
)

const progressTTL = 24 * time.Hour

type taskRedisRepo struct {
	client *redis.Client
	prefix string
}

func NewTaskRedisRepo(client *redis.Client, prefix string) tasks.RedisRepository {
	return &taskRedisRepo{
		client: client,
		prefix: prefix,
	}
}

func (r *taskRedisRepo) AcquireTaskLock(ctx context.Context, taskID string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.lockKey(taskID), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire task lock: %w", err)
	}
	return ok, nil
}

func (r *taskRedisRepo) ReleaseTaskLock(ctx context.Context, taskID string) error {
	if err := r.client.Del(ctx, r.lockKey(taskID)).Err(); err != nil {
		return fmt.Errorf("failed to release task lock: %w", err)
	}
	return nil
}

func (r *taskRedisRepo) SetProgress(ctx context.Context, progress *models.TaskProgress) error {
	key := r.progressKey(progress.TaskID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key,
		"task_id", progress.TaskID,
		"percent", progress.Percent,
		"eta_seconds", progress.ETASeconds,
		"stage", progress.Stage,
	)
	pipe.Expire(ctx, key, progressTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set task progress: %w", err)
	}
	return nil
}

func (r *taskRedisRepo) GetProgress(ctx context.Context, taskID string) (*models.TaskProgress, error) {
	res := r.client.HGetAll(ctx, r.progressKey(taskID))
	if err := res.Err(); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get task progress: %w", err)
	}
	if len(res.Val()) == 0 {
		return nil, apperrors.Newf(apperrors.KindNotFound, "no progress recorded for task %s", taskID)
	}
	progress := &models.TaskProgress{}
	if err := res.Scan(progress); err != nil {
		return nil, fmt.Errorf("failed to decode task progress: %w", err)
	}
	return progress, nil
}

func (r *taskRedisRepo) DeleteProgress(ctx context.Context, taskID string) error {
	if err := r.client.Del(ctx, r.progressKey(taskID)).Err(); err != nil {
		return fmt.Errorf("failed to delete task progress: %w", err)
	}
	return nil
}

func (r *taskRedisRepo) lockKey(taskID string) string {
	return fmt.Sprintf("%s:task:%s:lock", r.prefix, taskID)
}

func (r *taskRedisRepo) progressKey(taskID string) string {
	return fmt.Sprintf("%s:task:%s:progress", r.prefix, taskID)
}
