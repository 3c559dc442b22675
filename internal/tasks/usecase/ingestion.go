package usecase

import (
	"context"
	"strings"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/tasks"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
)

type ingestion struct {
	taskUC tasks.UseCase
	logger logger.Logger
}

func NewIngestion(taskUC tasks.UseCase, log logger.Logger) tasks.Ingestion {
	return &ingestion{
		taskUC: taskUC,
		logger: log,
	}
}

// Submit validates a submission and creates its task. The returned
// SubmissionResult is filled in on failure as well.
func (i *ingestion) Submit(ctx context.Context, submission *models.TaskSubmission) (*models.SubmissionResult, error) {
	task, err := i.buildTask(ctx, submission)
	if err != nil {
		i.logger.Errorf("Submit - buildTask error: %v", err)
		return &models.SubmissionResult{Success: false, Error: err.Error()}, err
	}

	created, reused, err := i.taskUC.CreateTaskWithReuseCheck(ctx, task)
	if err != nil {
		i.logger.Errorf("Submit - CreateTaskWithReuseCheck error: %v", err)
		return &models.SubmissionResult{Success: false, Error: err.Error()}, err
	}
	return &models.SubmissionResult{
		Success:    true,
		DownloadID: created.ID,
		Status:     created.Status,
		Reused:     reused,
	}, nil
}

func (i *ingestion) buildTask(ctx context.Context, s *models.TaskSubmission) (*models.Task, error) {
	if s == nil {
		return nil, apperrors.New(apperrors.KindValidation, "submission is required")
	}
	s.URL = strings.TrimSpace(s.URL)
	if err := utils.ValidateStruct(ctx, s); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid submission")
	}

	destination := models.DestinationTypeTelegram
	if s.DestinationType != "" {
		parsed, ok := models.ParseDestinationType(s.DestinationType)
		if !ok {
			return nil, apperrors.Newf(apperrors.KindValidation, "unsupported destination type: %s", s.DestinationType)
		}
		destination = parsed
	}

	userID := s.UserID
	if userID == "" {
		userID = s.ChatID
	}

	task := models.NewTask(s.URL, destination, userID, s.ChatID)
	task.Priority = s.Priority
	if s.Format != "" {
		task.RequestedFormat = strings.ToLower(s.Format)
	}
	if s.Quality != "" {
		task.RequestedQuality = s.Quality
	}
	if s.Resolution != "" {
		task.RequestedResolution = s.Resolution
	}
	if s.MaxRetries != nil {
		task.MaxRetries = *s.MaxRetries
	}
	if s.DestinationConfig != "" {
		task.DestinationConfig = models.StringPtr(s.DestinationConfig)
	}
	if s.Metadata != "" {
		task.Metadata = models.StringPtr(s.Metadata)
	}
	return task, nil
}
