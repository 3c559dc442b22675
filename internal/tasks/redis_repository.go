package tasks

import (
	"context"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
)

// RedisRepository coordinates executors that share one database.
type RedisRepository interface {
	AcquireTaskLock(ctx context.Context, taskID string, ttl time.Duration) (bool, error)
	ReleaseTaskLock(ctx context.Context, taskID string) error
	SetProgress(ctx context.Context, progress *models.TaskProgress) error
	GetProgress(ctx context.Context, taskID string) (*models.TaskProgress, error)
	DeleteProgress(ctx context.Context, taskID string) error
}
