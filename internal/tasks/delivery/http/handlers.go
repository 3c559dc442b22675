package http

import (
	"net/http"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/tasks"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
	"github.com/labstack/echo/v4"
)

type taskHandler struct {
	taskUC    tasks.UseCase
	ingestion tasks.Ingestion
	logger    logger.Logger
}

func NewTaskHandler(taskUC tasks.UseCase, ingestion tasks.Ingestion, log logger.Logger) tasks.Handler {
	return &taskHandler{
		taskUC:    taskUC,
		ingestion: ingestion,
		logger:    log,
	}
}

func (h *taskHandler) Submit() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.TaskSubmission{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, models.SubmissionResult{Error: "Invalid request payload"})
		}
		result, err := h.ingestion.Submit(c.Request().Context(), input)
		if err != nil {
			return c.JSON(apperrors.HTTPStatus(apperrors.KindOf(err)), result)
		}
		return c.JSON(http.StatusCreated, result)
	}
}

func (h *taskHandler) Search() echo.HandlerFunc {
	return func(c echo.Context) error {
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, apperrors.Wrap(apperrors.KindValidation, err, "invalid pagination"))
		}
		criteria, err := taskCriteriaFromQuery(c)
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		list, err := h.taskUC.Search(c.Request().Context(), criteria, pagination)
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, list)
	}
}

func (h *taskHandler) Statistics() echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := h.taskUC.Statistics(c.Request().Context())
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func (h *taskHandler) GetByID() echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := h.taskUC.GetTask(c.Request().Context(), c.Param("task_id"))
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func (h *taskHandler) GetResults() echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := h.taskUC.GetTaskWithResults(c.Request().Context(), c.Param("task_id"))
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, task.Results)
	}
}

func (h *taskHandler) GetProgress() echo.HandlerFunc {
	return func(c echo.Context) error {
		progress, err := h.taskUC.Progress(c.Request().Context(), c.Param("task_id"))
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, progress)
	}
}

func (h *taskHandler) Retry() echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := h.taskUC.RetryTask(c.Request().Context(), c.Param("task_id"))
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func (h *taskHandler) Cancel() echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := h.taskUC.CancelTask(c.Request().Context(), c.Param("task_id"))
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

// Process runs the task inline and answers once it finished.
func (h *taskHandler) Process() echo.HandlerFunc {
	return func(c echo.Context) error {
		result, err := h.taskUC.ProcessTask(c.Request().Context(), c.Param("task_id"))
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

func (h *taskHandler) Delete() echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := h.taskUC.DeleteTask(c.Request().Context(), c.Param("task_id")); err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Task deleted successfully"})
	}
}

func (h *taskHandler) VideoMetadata() echo.HandlerFunc {
	return func(c echo.Context) error {
		meta, err := h.taskUC.FetchMetadata(c.Request().Context(), c.QueryParam("url"))
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, meta)
	}
}

func (h *taskHandler) VideoFormats() echo.HandlerFunc {
	return func(c echo.Context) error {
		formats, err := h.taskUC.ListFormats(c.Request().Context(), c.QueryParam("url"))
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, formats)
	}
}

func taskCriteriaFromQuery(c echo.Context) (*models.TaskCriteria, error) {
	criteria := &models.TaskCriteria{}
	if v := c.QueryParam("user_id"); v != "" {
		criteria.UserID = &v
	}
	if v := c.QueryParam("chat_id"); v != "" {
		criteria.ChatID = &v
	}
	if v := c.QueryParam("status"); v != "" {
		status := models.TaskStatus(v)
		if !status.IsValid() {
			return nil, apperrors.Newf(apperrors.KindValidation, "unknown status: %s", v)
		}
		criteria.Status = &status
	}
	if v := c.QueryParam("source_type"); v != "" {
		source := models.SourceType(v)
		if !source.IsValid() {
			return nil, apperrors.Newf(apperrors.KindValidation, "unknown source type: %s", v)
		}
		criteria.SourceType = &source
	}
	if v := c.QueryParam("destination_type"); v != "" {
		destination, ok := models.ParseDestinationType(v)
		if !ok {
			return nil, apperrors.Newf(apperrors.KindValidation, "unknown destination type: %s", v)
		}
		criteria.DestinationType = &destination
	}
	return criteria, nil
}
