package results

import (
	"context"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
)

type Repository interface {
	// Create inserts result. A primary result demotes the task's other results in the same transaction.
	Create(ctx context.Context, result *models.Result) error
	Update(ctx context.Context, result *models.Result) error
	MarkPrimary(ctx context.Context, taskID, resultID string) error
	Delete(ctx context.Context, resultID string) error
	DeleteByTask(ctx context.Context, taskID string) (int64, error)

	GetByID(ctx context.Context, resultID string) (*models.Result, error)
	ListByTask(ctx context.Context, taskID string) ([]*models.Result, error)
	GetPrimaryByTask(ctx context.Context, taskID string) (*models.Result, error)
	ListByDestinationID(ctx context.Context, destinationID string) ([]*models.Result, error)
	Search(ctx context.Context, criteria *models.ResultCriteria, pq *utils.Pagination) (*models.ResultList, error)

	MostRecentCompleted(ctx context.Context, sourceURL string, destination models.DestinationType) (*models.Result, error)
	ListExisting(ctx context.Context, sourceURL string, destination models.DestinationType) ([]*models.Result, error)
	ListForCleanup(ctx context.Context, cutoff time.Time, keep []models.DestinationType) ([]*models.Result, error)

	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error)
	TotalCompletedFileSize(ctx context.Context) (int64, error)
	CompletedAverages(ctx context.Context) (avgFileSize float64, avgProcessingMs float64, err error)
	AverageFileSizeByDestination(ctx context.Context) (map[models.DestinationType]float64, error)
	AverageProcessingTimeByDestination(ctx context.Context) (map[models.DestinationType]float64, error)
}
