package usecase

import (
	"context"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
)

// ProcessTask downloads the task's video, uploads it to its destination and
// delivers it. Any failure after admission leaves the task FAILED with the
// error message.
func (u *taskUC) ProcessTask(ctx context.Context, taskID string) (*models.Result, error) {
	task, err := u.MarkStarted(ctx, taskID)
	if err != nil {
		return nil, err
	}
	u.logger.Infof("Processing task %s: %s", task.ID, task.SourceURL)
	u.setProgress(ctx, task.ID, 0, 0, stageDownloading)

	result, err := u.process(ctx, task)
	if err != nil {
		u.fail(ctx, task.ID, err)
		return nil, err
	}
	u.setProgress(ctx, task.ID, 100, 0, stageCompleted)
	u.logger.Infof("Task %s completed, destination id %s", task.ID, *result.DestinationID)
	return result, nil
}

func (u *taskUC) ProcessTasks(ctx context.Context, taskIDs []string) []*models.Result {
	processed := make([]*models.Result, 0, len(taskIDs))
	for _, id := range taskIDs {
		result, err := u.ProcessTask(ctx, id)
		if err != nil {
			u.logger.Errorf("ProcessTasks - ProcessTask %s error: %v", id, err)
			continue
		}
		processed = append(processed, result)
	}
	return processed
}

func (u *taskUC) process(ctx context.Context, task *models.Task) (*models.Result, error) {
	source, err := u.registry.Source(task.SourceType)
	if err != nil {
		return nil, err
	}
	destination, err := u.registry.Destination(task.DestinationType)
	if err != nil {
		return nil, err
	}
	if err = source.Validate(task); err != nil {
		return nil, err
	}
	if err = destination.Validate(ctx, task); err != nil {
		return nil, err
	}

	file, err := source.Download(ctx, task, func(percent float64, eta int64) {
		u.setProgress(ctx, task.ID, percent, eta, stageDownloading)
	})
	if err != nil {
		return nil, err
	}
	defer u.removeDownload(file)

	if !u.sizeGate.FileSizeAcceptable(file.Size) {
		return nil, apperrors.Newf(apperrors.KindValidation, "file size %d bytes exceeds the configured maximum", file.Size)
	}
	if limit := destination.MaxFileSize(); limit > 0 && file.Size > limit {
		return nil, apperrors.Newf(apperrors.KindValidation, "file size %d bytes exceeds the %s limit of %d bytes",
			file.Size, task.DestinationType.DisplayName(), limit)
	}

	result, err := u.resultUC.CreateResult(ctx, task, task.DestinationType)
	if err != nil {
		return nil, err
	}
	if err = u.resultUC.MarkStarted(ctx, result); err != nil {
		return nil, err
	}
	u.setProgress(ctx, task.ID, 100, 0, stageUploading)

	destinationID, err := destination.Upload(ctx, file, task, result)
	if err != nil {
		if markErr := u.resultUC.MarkFailed(context.WithoutCancel(ctx), result, err.Error()); markErr != nil {
			u.logger.Errorf("ProcessTask - result MarkFailed error: %v", markErr)
		}
		return nil, err
	}

	if task.DownloadStartedAt != nil {
		result.ProcessingTimeMs = models.Int64Ptr(models.Now().Sub(*task.DownloadStartedAt).Milliseconds())
	}
	if err = u.resultUC.MarkCompleted(ctx, result, destinationID); err != nil {
		return nil, err
	}

	return u.deliver(ctx, task, destination, result, file)
}

// deliver sends the uploaded file to the task's chat and completes the task.
// A task cancelled while its file was in flight keeps the result as a
// non-primary record and is not delivered.
func (u *taskUC) deliver(
	ctx context.Context,
	task *models.Task,
	destination processor.DestinationProcessor,
	result *models.Result,
	file *processor.DownloadedFile,
) (*models.Result, error) {
	current, err := u.taskRepo.GetByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if current.Status != models.TaskStatusProcessing {
		return nil, apperrors.Newf(apperrors.KindConflict, "task %s became %s while processing", task.ID, current.Status)
	}

	if err = destination.SendByID(ctx, result, task); err != nil {
		return nil, err
	}

	if err = u.resultUC.SetPrimary(ctx, result.ID); err != nil {
		return nil, err
	}
	result.IsPrimaryResult = true

	size := file.Size
	if _, err = u.apply(ctx, current, func(t *models.Task) {
		t.Status = models.TaskStatusCompleted
		t.DownloadCompletedAt = models.TimePtr(models.Now())
		t.FileSizeBytes = &size
		t.SetError("")
	}); err != nil {
		if demoteErr := u.resultUC.SetSecondary(context.WithoutCancel(ctx), result.ID); demoteErr != nil {
			u.logger.Errorf("ProcessTask - SetSecondary %s error: %v", result.ID, demoteErr)
		}
		result.IsPrimaryResult = false
		return nil, err
	}
	*task = *current
	return result, nil
}

// fail records err on the task. Conflicts mean the task moved on, for
// example by cancellation, and are only logged.
func (u *taskUC) fail(ctx context.Context, taskID string, cause error) {
	if apperrors.KindOf(cause) == apperrors.KindInternal {
		u.logger.Errorf("ProcessTask - task %s error: %+v", taskID, cause)
	} else {
		u.logger.Errorf("ProcessTask - task %s error: %v", taskID, cause)
	}

	ctx = context.WithoutCancel(ctx)
	u.setProgress(ctx, taskID, 0, 0, stageFailed)
	if _, err := u.MarkFailed(ctx, taskID, processingErrorPrefix+cause.Error()); err != nil {
		if apperrors.IsConflict(err) {
			u.logger.Infof("ProcessTask - outcome of task %s discarded: %v", taskID, err)
			return
		}
		u.logger.Errorf("ProcessTask - MarkFailed %s error: %v", taskID, err)
	}
}
