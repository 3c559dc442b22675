package tasks

import (
	"context"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
)

type UseCase interface {
	CreateTask(ctx context.Context, task *models.Task) (*models.Task, error)
	// CreateTaskWithReuseCheck completes task from a stored result when the
	// same source was already delivered to the same destination kind.
	CreateTaskWithReuseCheck(ctx context.Context, task *models.Task) (*models.Task, bool, error)

	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	GetTaskWithResults(ctx context.Context, taskID string) (*models.Task, error)
	ListByStatus(ctx context.Context, status models.TaskStatus) ([]*models.Task, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Task, error)
	ListByChat(ctx context.Context, chatID string) ([]*models.Task, error)
	Search(ctx context.Context, criteria *models.TaskCriteria, pq *utils.Pagination) (*models.TaskList, error)
	PendingOrdered(ctx context.Context, limit int) ([]*models.Task, error)
	Retryable(ctx context.Context) ([]*models.Task, error)
	StuckProcessing(ctx context.Context, cutoff time.Time) ([]*models.Task, error)

	UpdateStatus(ctx context.Context, taskID string, status models.TaskStatus, message string) (*models.Task, error)
	MarkStarted(ctx context.Context, taskID string) (*models.Task, error)
	MarkCompleted(ctx context.Context, taskID string) (*models.Task, error)
	MarkFailed(ctx context.Context, taskID string, message string) (*models.Task, error)

	ProcessTask(ctx context.Context, taskID string) (*models.Result, error)
	ProcessTasks(ctx context.Context, taskIDs []string) []*models.Result
	RetryTask(ctx context.Context, taskID string) (*models.Task, error)
	CancelTask(ctx context.Context, taskID string) (*models.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	DeleteOldCompleted(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOldFailed(ctx context.Context, cutoff time.Time) (int64, error)

	Statistics(ctx context.Context) (*models.TaskStatistics, error)
	Progress(ctx context.Context, taskID string) (*models.TaskProgress, error)
	FetchMetadata(ctx context.Context, url string) (*processor.VideoMetadata, error)
	ListFormats(ctx context.Context, url string) (map[string]interface{}, error)
}

// Ingestion turns external submissions into tasks.
type Ingestion interface {
	Submit(ctx context.Context, submission *models.TaskSubmission) (*models.SubmissionResult, error)
}
