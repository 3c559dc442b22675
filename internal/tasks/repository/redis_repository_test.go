package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/tasks"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisRepo(t *testing.T) (tasks.RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTaskRedisRepo(client, "test"), mr
}

func TestTaskRedisRepo_Lock(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRedisRepo(t)

	ok, err := repo.AcquireTaskLock(ctx, "t1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AcquireTaskLock(ctx, "t1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "lock is held")

	require.NoError(t, repo.ReleaseTaskLock(ctx, "t1"))
	ok, err = repo.AcquireTaskLock(ctx, "t1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = repo.AcquireTaskLock(ctx, "t1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lock expired")
}

func TestTaskRedisRepo_Progress(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRedisRepo(t)

	_, err := repo.GetProgress(ctx, "t1")
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, repo.SetProgress(ctx, &models.TaskProgress{TaskID: "t1", Percent: 42.5, ETASeconds: 30, Stage: "download"}))
	progress, err := repo.GetProgress(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 42.5, progress.Percent)
	assert.Equal(t, int64(30), progress.ETASeconds)
	assert.Equal(t, "download", progress.Stage)

	require.NoError(t, repo.DeleteProgress(ctx, "t1"))
	_, err = repo.GetProgress(ctx, "t1")
	assert.True(t, apperrors.IsNotFound(err))
}
