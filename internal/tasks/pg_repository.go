package tasks

import (
	"context"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) error
	// Update writes task only if the stored status still equals expected.
	Update(ctx context.Context, task *models.Task, expected models.TaskStatus) error
	Delete(ctx context.Context, taskID string) error
	GetByID(ctx context.Context, taskID string) (*models.Task, error)

	ListByStatus(ctx context.Context, status models.TaskStatus) ([]*models.Task, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Task, error)
	ListByChat(ctx context.Context, chatID string) ([]*models.Task, error)
	ListBySourceURL(ctx context.Context, sourceURL string) ([]*models.Task, error)
	ListPendingOrdered(ctx context.Context, limit int) ([]*models.Task, error)
	ListRetryable(ctx context.Context, statuses []models.TaskStatus) ([]*models.Task, error)
	ListStuckProcessing(ctx context.Context, cutoff time.Time) ([]*models.Task, error)
	Search(ctx context.Context, criteria *models.TaskCriteria, pq *utils.Pagination) (*models.TaskList, error)

	DeleteOldCompleted(ctx context.Context, cutoff time.Time, keep []models.DestinationType) (int64, error)
	DeleteOldFailedTerminal(ctx context.Context, cutoff time.Time, keep []models.DestinationType) (int64, error)

	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error)
	CountBySourceType(ctx context.Context) (map[models.SourceType]int64, error)
	CountByDestinationType(ctx context.Context) (map[models.DestinationType]int64, error)
	CountRetryable(ctx context.Context) (int64, error)
}
