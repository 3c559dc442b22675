package utils

import (
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string         `json:"error"`
	Kind  apperrors.Kind `json:"kind"`
}

func GetRequestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func GetIPAddress(c echo.Context) string {
	return c.Request().RemoteAddr
}

// ErrResponseWithLog writes err with the status of its kind. Internal errors
// are logged with their stack.
func ErrResponseWithLog(c echo.Context, log logger.Logger, err error) error {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		log.Errorf("RequestID: %s, IPAddress: %s, Error: %+v", GetRequestID(c), GetIPAddress(c), err)
	}
	return c.JSON(apperrors.HTTPStatus(kind), ErrorResponse{Error: err.Error(), Kind: kind})
}
