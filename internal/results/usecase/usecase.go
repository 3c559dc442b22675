package usecase

import (
	"context"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
	"github.com/amankumarsingh77/tg-video-relay/internal/results"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
)

type resultUC struct {
	resultRepo results.Repository
	registry   *processor.Registry
	logger     logger.Logger
}

func NewResultUseCase(resultRepo results.Repository, registry *processor.Registry, log logger.Logger) results.UseCase {
	return &resultUC{
		resultRepo: resultRepo,
		registry:   registry,
		logger:     log,
	}
}

func (u *resultUC) HasExisting(ctx context.Context, sourceURL string, destination models.DestinationType) (bool, error) {
	_, err := u.resultRepo.MostRecentCompleted(ctx, sourceURL, destination)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		u.logger.Errorf("HasExisting - MostRecentCompleted error: %v", err)
		return false, err
	}
	return true, nil
}

func (u *resultUC) MostRecent(ctx context.Context, sourceURL string, destination models.DestinationType) (*models.Result, error) {
	return u.resultRepo.MostRecentCompleted(ctx, sourceURL, destination)
}

func (u *resultUC) ReuseInto(ctx context.Context, sourceURL string, destination models.DestinationType, task *models.Task) (*models.Result, error) {
	existing, err := u.resultRepo.MostRecentCompleted(ctx, sourceURL, destination)
	if err != nil {
		return nil, err
	}

	now := models.Now()
	reused := models.NewResult(task, destination)
	reused.CloneFileFacts(existing)
	reused.Status = models.TaskStatusCompleted
	reused.IsPrimaryResult = true
	reused.ProcessingTimeMs = models.Int64Ptr(0)
	reused.UploadTimeMs = models.Int64Ptr(0)
	reused.UploadStartedAt = models.TimePtr(now)
	reused.UploadCompletedAt = models.TimePtr(now)

	if err = u.resultRepo.Create(ctx, reused); err != nil {
		u.logger.Errorf("ReuseInto - Create error: %v", err)
		return nil, err
	}
	u.logger.Infof("Reused result %s of %s for task %s", existing.ID, sourceURL, task.ID)
	return reused, nil
}

func (u *resultUC) CreateResult(ctx context.Context, task *models.Task, destination models.DestinationType) (*models.Result, error) {
	result := models.NewResult(task, destination)
	result.Status = models.TaskStatusProcessing
	if err := u.resultRepo.Create(ctx, result); err != nil {
		u.logger.Errorf("CreateResult - Create error: %v", err)
		return nil, err
	}
	return result, nil
}

func (u *resultUC) MarkStarted(ctx context.Context, result *models.Result) error {
	result.Status = models.TaskStatusProcessing
	result.UploadStartedAt = models.TimePtr(models.Now())
	result.Touch()
	return u.resultRepo.Update(ctx, result)
}

// MarkCompleted records destinationID on result. A result that already
// completed keeps its destination id; completing it with another one is a conflict.
func (u *resultUC) MarkCompleted(ctx context.Context, result *models.Result, destinationID string) error {
	stored, err := u.resultRepo.GetByID(ctx, result.ID)
	if err != nil {
		return err
	}
	if stored.Status == models.TaskStatusCompleted && stored.DestinationID != nil && *stored.DestinationID != destinationID {
		return apperrors.Newf(apperrors.KindConflict, "result %s already completed with destination id %s", result.ID, *stored.DestinationID)
	}

	now := models.Now()
	result.Status = models.TaskStatusCompleted
	result.DestinationID = models.StringPtr(destinationID)
	result.UploadCompletedAt = models.TimePtr(now)
	result.SetError("")
	if result.UploadStartedAt != nil {
		result.UploadTimeMs = models.Int64Ptr(now.Sub(*result.UploadStartedAt).Milliseconds())
	}
	if result.ProcessingTimeMs == nil {
		result.ProcessingTimeMs = models.Int64Ptr(now.Sub(result.CreatedAt).Milliseconds())
	}
	result.Touch()

	if err = u.resultRepo.Update(ctx, result); err != nil {
		u.logger.Errorf("MarkCompleted - Update error: %v", err)
		return err
	}
	return nil
}

func (u *resultUC) MarkFailed(ctx context.Context, result *models.Result, message string) error {
	result.Status = models.TaskStatusFailed
	result.SetError(message)
	result.Touch()
	if err := u.resultRepo.Update(ctx, result); err != nil {
		u.logger.Errorf("MarkFailed - Update error: %v", err)
		return err
	}
	return nil
}

func (u *resultUC) SetPrimary(ctx context.Context, resultID string) error {
	result, err := u.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		return err
	}
	if result.TaskID == nil {
		return apperrors.Newf(apperrors.KindValidation, "result %s is not attached to a task", resultID)
	}
	return u.resultRepo.MarkPrimary(ctx, *result.TaskID, resultID)
}

func (u *resultUC) SetSecondary(ctx context.Context, resultID string) error {
	result, err := u.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		return err
	}
	if !result.IsPrimaryResult {
		return nil
	}
	result.IsPrimaryResult = false
	result.Touch()
	return u.resultRepo.Update(ctx, result)
}

func (u *resultUC) GetByID(ctx context.Context, resultID string) (*models.Result, error) {
	return u.resultRepo.GetByID(ctx, resultID)
}

func (u *resultUC) ListByTask(ctx context.Context, taskID string) ([]*models.Result, error) {
	return u.resultRepo.ListByTask(ctx, taskID)
}

func (u *resultUC) Delete(ctx context.Context, resultID string) error {
	return u.resultRepo.Delete(ctx, resultID)
}

func (u *resultUC) DeleteByTask(ctx context.Context, taskID string) (int64, error) {
	return u.resultRepo.DeleteByTask(ctx, taskID)
}

func (u *resultUC) Search(ctx context.Context, criteria *models.ResultCriteria, pq *utils.Pagination) (*models.ResultList, error) {
	return u.resultRepo.Search(ctx, criteria, pq)
}

func (u *resultUC) Statistics(ctx context.Context) (*models.ResultStatistics, error) {
	total, err := u.resultRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := u.resultRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	totalSize, err := u.resultRepo.TotalCompletedFileSize(ctx)
	if err != nil {
		return nil, err
	}
	avgSize, avgProcessing, err := u.resultRepo.CompletedAverages(ctx)
	if err != nil {
		return nil, err
	}
	sizeByDestination, err := u.resultRepo.AverageFileSizeByDestination(ctx)
	if err != nil {
		return nil, err
	}
	processingByDestination, err := u.resultRepo.AverageProcessingTimeByDestination(ctx)
	if err != nil {
		return nil, err
	}

	return &models.ResultStatistics{
		Total:                              total,
		Completed:                          byStatus[models.TaskStatusCompleted],
		Failed:                             byStatus[models.TaskStatusFailed],
		TotalFileSizeBytes:                 totalSize,
		AverageFileSizeBytes:               avgSize,
		AverageProcessingTime:              avgProcessing,
		AverageFileSizeByDestination:       sizeByDestination,
		AverageProcessingTimeByDestination: processingByDestination,
	}, nil
}

// CleanupOldCompleted removes results created before cutoff. Results of
// re-sendable destinations are never removed. Stored files are deleted from
// their destination first when it supports deletion.
func (u *resultUC) CleanupOldCompleted(ctx context.Context, cutoff time.Time) (int, error) {
	old, err := u.resultRepo.ListForCleanup(ctx, cutoff, models.ResendableDestinationTypes())
	if err != nil {
		u.logger.Errorf("CleanupOldCompleted - ListForCleanup error: %v", err)
		return 0, err
	}

	deleted := 0
	for _, result := range old {
		if result.DestinationID != nil {
			u.deleteFromDestination(ctx, result)
		}
		if err = u.resultRepo.Delete(ctx, result.ID); err != nil {
			if !apperrors.IsNotFound(err) {
				u.logger.Errorf("CleanupOldCompleted - Delete %s error: %v", result.ID, err)
			}
			continue
		}
		deleted++
	}
	if deleted > 0 {
		u.logger.Infof("Cleaned up %d results older than %s", deleted, cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}

func (u *resultUC) deleteFromDestination(ctx context.Context, result *models.Result) {
	destination, err := u.registry.Destination(result.DestinationType)
	if err != nil {
		u.logger.Warnf("CleanupOldCompleted - no destination for result %s: %v", result.ID, err)
		return
	}
	removed, err := destination.Delete(ctx, *result.DestinationID)
	if err != nil {
		u.logger.Warnf("CleanupOldCompleted - destination Delete %s error: %v", *result.DestinationID, err)
		return
	}
	if !removed {
		u.logger.Debugf("Destination %s kept %s", result.DestinationType, *result.DestinationID)
	}
}
