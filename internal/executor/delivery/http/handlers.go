package http

import (
	"context"
	"net/http"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/executor"
	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
	"github.com/labstack/echo/v4"
)

// Runtime is the part of the executor exposed over HTTP.
type Runtime interface {
	ProcessingStatus(ctx context.Context) *models.ProcessingStatus
	Statistics(ctx context.Context) (*models.TaskExecutionStatistics, error)
	UpdateProcessingConfiguration(maxConcurrentTasks int) error
	DisableMemoryChecks(d time.Duration) error
}

type executorHandler struct {
	runtime Runtime
	logger  logger.Logger
}

func NewExecutorHandler(runtime Runtime, log logger.Logger) executor.Handler {
	return &executorHandler{
		runtime: runtime,
		logger:  log,
	}
}

type configRequest struct {
	MaxConcurrentTasks int `json:"max_concurrent_tasks" validate:"required,gte=1"`
}

type disableRequest struct {
	Seconds int `json:"seconds" validate:"required,gte=1,lte=86400"`
}

func (h *executorHandler) Status() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, h.runtime.ProcessingStatus(c.Request().Context()))
	}
}

func (h *executorHandler) Statistics() echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := h.runtime.Statistics(c.Request().Context())
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func (h *executorHandler) UpdateConfig() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &configRequest{}
		if err := h.bind(c, input); err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		if err := h.runtime.UpdateProcessingConfiguration(input.MaxConcurrentTasks); err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, h.runtime.ProcessingStatus(c.Request().Context()))
	}
}

func (h *executorHandler) DisableMemoryChecks() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &disableRequest{}
		if err := h.bind(c, input); err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		if err := h.runtime.DisableMemoryChecks(time.Duration(input.Seconds) * time.Second); err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message": "Memory checks disabled",
			"seconds": input.Seconds,
		})
	}
}

func (h *executorHandler) bind(c echo.Context, input interface{}) error {
	if err := c.Bind(input); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err, "invalid request payload")
	}
	if err := utils.ValidateStruct(c.Request().Context(), input); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err, "invalid request payload")
	}
	return nil
}
