package usecase

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
	"github.com/amankumarsingh77/tg-video-relay/internal/results"
	"github.com/amankumarsingh77/tg-video-relay/internal/tasks"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
)

const (
	processingErrorPrefix = "Failed to process task: "

	stagePending     = "pending"
	stageDownloading = "downloading"
	stageUploading   = "uploading"
	stageCompleted   = "completed"
	stageFailed      = "failed"
	stageCancelled   = "cancelled"
)

// SizeGate decides whether a downloaded file may be processed.
type SizeGate interface {
	FileSizeAcceptable(size int64) bool
}

type taskUC struct {
	taskRepo  tasks.Repository
	redisRepo tasks.RedisRepository
	resultUC  results.UseCase
	registry  *processor.Registry
	sizeGate  SizeGate
	logger    logger.Logger
}

// NewTaskUseCase builds the task service. redisRepo may be nil, in which case
// progress is derived from the task status alone.
func NewTaskUseCase(
	taskRepo tasks.Repository,
	redisRepo tasks.RedisRepository,
	resultUC results.UseCase,
	registry *processor.Registry,
	sizeGate SizeGate,
	log logger.Logger,
) tasks.UseCase {
	return &taskUC{
		taskRepo:  taskRepo,
		redisRepo: redisRepo,
		resultUC:  resultUC,
		registry:  registry,
		sizeGate:  sizeGate,
		logger:    log,
	}
}

func (u *taskUC) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	return u.create(ctx, task, models.TaskStatusPending)
}

func (u *taskUC) create(ctx context.Context, task *models.Task, status models.TaskStatus) (*models.Task, error) {
	if strings.TrimSpace(task.SourceURL) == "" {
		return nil, apperrors.New(apperrors.KindValidation, "source url is required")
	}
	if _, err := u.registry.Source(task.SourceType); err != nil {
		return nil, err
	}
	if _, err := u.registry.Destination(task.DestinationType); err != nil {
		return nil, err
	}

	task.Status = status
	if status == models.TaskStatusProcessing {
		task.DownloadStartedAt = models.TimePtr(models.Now())
	}
	if err := u.taskRepo.Create(ctx, task); err != nil {
		u.logger.Errorf("CreateTask - Create error: %v", err)
		return nil, err
	}
	u.logger.Infof("Created %s task %s for %s (%s -> %s)", status, task.ID, task.SourceURL, task.SourceType, task.DestinationType)
	return task, nil
}

// CreateTaskWithReuseCheck inserts a task that can be served from a stored
// result as PROCESSING, so the pending pass never admits it while the stored
// file is re-sent.
func (u *taskUC) CreateTaskWithReuseCheck(ctx context.Context, task *models.Task) (*models.Task, bool, error) {
	exists, err := u.resultUC.HasExisting(ctx, task.SourceURL, task.DestinationType)
	if err != nil {
		u.logger.Warnf("CreateTaskWithReuseCheck - HasExisting error: %v", err)
	}
	if !exists {
		created, err := u.CreateTask(ctx, task)
		return created, false, err
	}

	claimed, err := u.create(ctx, task, models.TaskStatusProcessing)
	if err != nil {
		return nil, false, err
	}

	result, err := u.resultUC.ReuseInto(ctx, claimed.SourceURL, claimed.DestinationType, claimed)
	if err != nil {
		u.logger.Warnf("CreateTaskWithReuseCheck - ReuseInto error: %v", err)
		released, releaseErr := u.apply(ctx, claimed, func(t *models.Task) {
			t.Status = models.TaskStatusPending
			t.DownloadStartedAt = nil
		})
		if releaseErr != nil {
			u.logger.Errorf("CreateTaskWithReuseCheck - release error: %v", releaseErr)
			return nil, false, releaseErr
		}
		return released, false, nil
	}

	if destination, err := u.registry.Destination(claimed.DestinationType); err == nil {
		if err = destination.SendByID(ctx, result, claimed); err != nil {
			u.logger.Warnf("CreateTaskWithReuseCheck - SendByID %s for task %s error: %v", *result.DestinationID, claimed.ID, err)
		}
	}

	completed, err := u.apply(ctx, claimed, func(t *models.Task) {
		t.Status = models.TaskStatusCompleted
		t.DownloadCompletedAt = models.TimePtr(models.Now())
		t.FileSizeBytes = result.FileSizeBytes
	})
	if err != nil {
		u.logger.Errorf("CreateTaskWithReuseCheck - complete error: %v", err)
		return nil, false, err
	}
	u.logger.Infof("Task %s completed from stored result %s", completed.ID, result.ID)
	return completed, true, nil
}

func (u *taskUC) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	return u.taskRepo.GetByID(ctx, taskID)
}

func (u *taskUC) GetTaskWithResults(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := u.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.Results, err = u.resultUC.ListByTask(ctx, taskID)
	if err != nil {
		u.logger.Errorf("GetTaskWithResults - ListByTask error: %v", err)
		return nil, err
	}
	return task, nil
}

func (u *taskUC) ListByStatus(ctx context.Context, status models.TaskStatus) ([]*models.Task, error) {
	if !status.IsValid() {
		return nil, apperrors.Newf(apperrors.KindValidation, "unknown status: %s", status)
	}
	return u.taskRepo.ListByStatus(ctx, status)
}

func (u *taskUC) ListByUser(ctx context.Context, userID string) ([]*models.Task, error) {
	return u.taskRepo.ListByUser(ctx, userID)
}

func (u *taskUC) ListByChat(ctx context.Context, chatID string) ([]*models.Task, error) {
	return u.taskRepo.ListByChat(ctx, chatID)
}

func (u *taskUC) Search(ctx context.Context, criteria *models.TaskCriteria, pq *utils.Pagination) (*models.TaskList, error) {
	return u.taskRepo.Search(ctx, criteria, pq)
}

func (u *taskUC) PendingOrdered(ctx context.Context, limit int) ([]*models.Task, error) {
	return u.taskRepo.ListPendingOrdered(ctx, limit)
}

func (u *taskUC) Retryable(ctx context.Context) ([]*models.Task, error) {
	return u.taskRepo.ListRetryable(ctx, []models.TaskStatus{models.TaskStatusFailed, models.TaskStatusCancelled})
}

func (u *taskUC) StuckProcessing(ctx context.Context, cutoff time.Time) ([]*models.Task, error) {
	return u.taskRepo.ListStuckProcessing(ctx, cutoff)
}

// UpdateStatus moves the task to status unconditionally of the state machine,
// but still only if nobody changed it since it was read.
func (u *taskUC) UpdateStatus(ctx context.Context, taskID string, status models.TaskStatus, message string) (*models.Task, error) {
	if !status.IsValid() {
		return nil, apperrors.Newf(apperrors.KindValidation, "unknown status: %s", status)
	}
	task, err := u.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return u.apply(ctx, task, func(t *models.Task) {
		t.Status = status
		if message != "" {
			t.SetError(message)
		}
		if status.IsTerminal() && t.DownloadCompletedAt == nil {
			t.DownloadCompletedAt = models.TimePtr(models.Now())
		}
	})
}

func (u *taskUC) MarkStarted(ctx context.Context, taskID string) (*models.Task, error) {
	return u.transition(ctx, taskID, []models.TaskStatus{models.TaskStatusPending}, func(t *models.Task) {
		t.Status = models.TaskStatusProcessing
		t.DownloadStartedAt = models.TimePtr(models.Now())
		t.DownloadCompletedAt = nil
	})
}

func (u *taskUC) MarkCompleted(ctx context.Context, taskID string) (*models.Task, error) {
	return u.transition(ctx, taskID, []models.TaskStatus{models.TaskStatusPending, models.TaskStatusProcessing}, func(t *models.Task) {
		t.Status = models.TaskStatusCompleted
		t.DownloadCompletedAt = models.TimePtr(models.Now())
		t.SetError("")
	})
}

func (u *taskUC) MarkFailed(ctx context.Context, taskID string, message string) (*models.Task, error) {
	return u.transition(ctx, taskID, []models.TaskStatus{models.TaskStatusPending, models.TaskStatusProcessing}, func(t *models.Task) {
		t.Status = models.TaskStatusFailed
		t.DownloadCompletedAt = models.TimePtr(models.Now())
		t.SetError(message)
	})
}

func (u *taskUC) RetryTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := u.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.CanRetry() {
		return nil, apperrors.Newf(apperrors.KindConflict, "task %s cannot be retried (status %s, retries %d/%d)",
			task.ID, task.Status, task.RetryCount, task.MaxRetries)
	}

	retried, err := u.apply(ctx, task, func(t *models.Task) {
		t.Status = models.TaskStatusPending
		t.SetError("")
		t.DownloadStartedAt = nil
		t.DownloadCompletedAt = nil
		t.RetryCount++
	})
	if err != nil {
		u.logger.Errorf("RetryTask - apply error: %v", err)
		return nil, err
	}
	u.clearProgress(ctx, taskID)
	u.logger.Infof("Task %s queued for retry %d/%d", retried.ID, retried.RetryCount, retried.MaxRetries)
	return retried, nil
}

func (u *taskUC) CancelTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := u.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == models.TaskStatusCancelled {
		return task, nil
	}
	if !task.CanCancel() {
		return nil, apperrors.Newf(apperrors.KindConflict, "task %s is already %s", task.ID, task.Status)
	}

	cancelled, err := u.apply(ctx, task, func(t *models.Task) {
		t.Status = models.TaskStatusCancelled
	})
	if err != nil {
		u.logger.Errorf("CancelTask - apply error: %v", err)
		return nil, err
	}
	u.logger.Infof("Task %s cancelled", taskID)
	return cancelled, nil
}

func (u *taskUC) DeleteTask(ctx context.Context, taskID string) error {
	if err := u.taskRepo.Delete(ctx, taskID); err != nil {
		return err
	}
	u.clearProgress(ctx, taskID)
	return nil
}

func (u *taskUC) DeleteOldCompleted(ctx context.Context, cutoff time.Time) (int64, error) {
	return u.taskRepo.DeleteOldCompleted(ctx, cutoff, models.ResendableDestinationTypes())
}

func (u *taskUC) DeleteOldFailed(ctx context.Context, cutoff time.Time) (int64, error) {
	return u.taskRepo.DeleteOldFailedTerminal(ctx, cutoff, models.ResendableDestinationTypes())
}

func (u *taskUC) Statistics(ctx context.Context) (*models.TaskStatistics, error) {
	total, err := u.taskRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := u.taskRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	retryable, err := u.taskRepo.CountRetryable(ctx)
	if err != nil {
		return nil, err
	}
	bySource, err := u.taskRepo.CountBySourceType(ctx)
	if err != nil {
		return nil, err
	}
	byDestination, err := u.taskRepo.CountByDestinationType(ctx)
	if err != nil {
		return nil, err
	}
	return &models.TaskStatistics{
		Total:             total,
		Pending:           byStatus[models.TaskStatusPending],
		Processing:        byStatus[models.TaskStatusProcessing],
		Completed:         byStatus[models.TaskStatusCompleted],
		Failed:            byStatus[models.TaskStatusFailed],
		Cancelled:         byStatus[models.TaskStatusCancelled],
		Retryable:         retryable,
		BySourceType:      bySource,
		ByDestinationType: byDestination,
	}, nil
}

func (u *taskUC) Progress(ctx context.Context, taskID string) (*models.TaskProgress, error) {
	task, err := u.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if u.redisRepo != nil && task.Status == models.TaskStatusProcessing {
		progress, err := u.redisRepo.GetProgress(ctx, taskID)
		if err == nil {
			return progress, nil
		}
		if !apperrors.IsNotFound(err) {
			u.logger.Warnf("Progress - GetProgress error: %v", err)
		}
	}
	return statusProgress(task), nil
}

func (u *taskUC) FetchMetadata(ctx context.Context, url string) (*processor.VideoMetadata, error) {
	source, err := u.sourceFor(url)
	if err != nil {
		return nil, err
	}
	return source.FetchMetadata(ctx, url)
}

func (u *taskUC) ListFormats(ctx context.Context, url string) (map[string]interface{}, error) {
	source, err := u.sourceFor(url)
	if err != nil {
		return nil, err
	}
	return source.ListFormats(ctx, url)
}

func (u *taskUC) sourceFor(url string) (processor.SourceProcessor, error) {
	if strings.TrimSpace(url) == "" {
		return nil, apperrors.New(apperrors.KindValidation, "url is required")
	}
	return u.registry.SourceFor(url)
}

// transition reloads the task and applies mutate if its status is one of allowed.
func (u *taskUC) transition(ctx context.Context, taskID string, allowed []models.TaskStatus, mutate func(*models.Task)) (*models.Task, error) {
	task, err := u.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !statusIn(task.Status, allowed) {
		return nil, apperrors.Newf(apperrors.KindConflict, "task %s is %s", task.ID, task.Status)
	}
	return u.apply(ctx, task, mutate)
}

// apply persists mutate(task) provided the stored status still matches the one read.
func (u *taskUC) apply(ctx context.Context, task *models.Task, mutate func(*models.Task)) (*models.Task, error) {
	expected := task.Status
	next := *task
	mutate(&next)
	next.Touch()
	if err := u.taskRepo.Update(ctx, &next, expected); err != nil {
		return nil, err
	}
	*task = next
	return task, nil
}

func (u *taskUC) setProgress(ctx context.Context, taskID string, percent float64, eta int64, stage string) {
	if u.redisRepo == nil {
		return
	}
	progress := &models.TaskProgress{TaskID: taskID, Percent: percent, ETASeconds: eta, Stage: stage}
	if err := u.redisRepo.SetProgress(ctx, progress); err != nil {
		u.logger.Debugf("setProgress - task %s error: %v", taskID, err)
	}
}

func (u *taskUC) clearProgress(ctx context.Context, taskID string) {
	if u.redisRepo == nil {
		return
	}
	if err := u.redisRepo.DeleteProgress(ctx, taskID); err != nil {
		u.logger.Debugf("clearProgress - task %s error: %v", taskID, err)
	}
}

func (u *taskUC) removeDownload(file *processor.DownloadedFile) {
	dir := file.Dir
	if dir == "" {
		dir = file.Path
	}
	if err := os.RemoveAll(dir); err != nil {
		u.logger.Warnf("removeDownload - %s error: %v", dir, err)
	}
}

func statusIn(status models.TaskStatus, allowed []models.TaskStatus) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

func statusProgress(task *models.Task) *models.TaskProgress {
	progress := &models.TaskProgress{TaskID: task.ID}
	switch task.Status {
	case models.TaskStatusPending:
		progress.Stage = stagePending
	case models.TaskStatusProcessing:
		progress.Stage = stageDownloading
	case models.TaskStatusCompleted:
		progress.Stage = stageCompleted
		progress.Percent = 100
	case models.TaskStatusFailed:
		progress.Stage = stageFailed
	case models.TaskStatusCancelled:
		progress.Stage = stageCancelled
	}
	return progress
}
