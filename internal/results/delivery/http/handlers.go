package http

import (
	"net/http"
	"strconv"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/results"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
	"github.com/labstack/echo/v4"
)

type resultHandler struct {
	resultUC results.UseCase
	logger   logger.Logger
}

func NewResultHandler(resultUC results.UseCase, log logger.Logger) results.Handler {
	return &resultHandler{
		resultUC: resultUC,
		logger:   log,
	}
}

func (h *resultHandler) Search() echo.HandlerFunc {
	return func(c echo.Context) error {
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, apperrors.Wrap(apperrors.KindValidation, err, "invalid pagination"))
		}
		criteria, err := resultCriteriaFromQuery(c)
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		list, err := h.resultUC.Search(c.Request().Context(), criteria, pagination)
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, list)
	}
}

func (h *resultHandler) Statistics() echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := h.resultUC.Statistics(c.Request().Context())
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func (h *resultHandler) GetByID() echo.HandlerFunc {
	return func(c echo.Context) error {
		result, err := h.resultUC.GetByID(c.Request().Context(), c.Param("result_id"))
		if err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

func (h *resultHandler) SetPrimary() echo.HandlerFunc {
	return func(c echo.Context) error {
		resultID := c.Param("result_id")
		if err := h.resultUC.SetPrimary(c.Request().Context(), resultID); err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Result marked as primary", "result_id": resultID})
	}
}

func (h *resultHandler) Delete() echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := h.resultUC.Delete(c.Request().Context(), c.Param("result_id")); err != nil {
			return utils.ErrResponseWithLog(c, h.logger, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Result deleted successfully"})
	}
}

func resultCriteriaFromQuery(c echo.Context) (*models.ResultCriteria, error) {
	criteria := &models.ResultCriteria{}
	if v := c.QueryParam("task_id"); v != "" {
		criteria.TaskID = &v
	}
	if v := c.QueryParam("destination_type"); v != "" {
		destination, ok := models.ParseDestinationType(v)
		if !ok {
			return nil, apperrors.Newf(apperrors.KindValidation, "unknown destination type: %s", v)
		}
		criteria.DestinationType = &destination
	}
	if v := c.QueryParam("status"); v != "" {
		status := models.TaskStatus(v)
		if !status.IsValid() {
			return nil, apperrors.Newf(apperrors.KindValidation, "unknown status: %s", v)
		}
		criteria.Status = &status
	}
	if v := c.QueryParam("file_format"); v != "" {
		criteria.FileFormat = &v
	}
	if v := c.QueryParam("is_primary"); v != "" {
		primary, err := strconv.ParseBool(v)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid is_primary")
		}
		criteria.IsPrimary = &primary
	}
	return criteria, nil
}
