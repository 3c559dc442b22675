package results

import (
	"context"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
)

type UseCase interface {
	HasExisting(ctx context.Context, sourceURL string, destination models.DestinationType) (bool, error)
	MostRecent(ctx context.Context, sourceURL string, destination models.DestinationType) (*models.Result, error)
	// ReuseInto stores a completed primary result for task that points at the
	// destination id of the most recent completed result for sourceURL.
	ReuseInto(ctx context.Context, sourceURL string, destination models.DestinationType, task *models.Task) (*models.Result, error)

	CreateResult(ctx context.Context, task *models.Task, destination models.DestinationType) (*models.Result, error)
	MarkStarted(ctx context.Context, result *models.Result) error
	MarkCompleted(ctx context.Context, result *models.Result, destinationID string) error
	MarkFailed(ctx context.Context, result *models.Result, message string) error
	SetPrimary(ctx context.Context, resultID string) error
	SetSecondary(ctx context.Context, resultID string) error

	GetByID(ctx context.Context, resultID string) (*models.Result, error)
	ListByTask(ctx context.Context, taskID string) ([]*models.Result, error)
	Delete(ctx context.Context, resultID string) error
	DeleteByTask(ctx context.Context, taskID string) (int64, error)
	Search(ctx context.Context, criteria *models.ResultCriteria, pq *utils.Pagination) (*models.ResultList, error)
	Statistics(ctx context.Context) (*models.ResultStatistics, error)

	CleanupOldCompleted(ctx context.Context, cutoff time.Time) (int, error)
}
