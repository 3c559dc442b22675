package middleware

import (
	"net/http"

	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type MiddlewareManager struct {
	origins []string
	logger  logger.Logger
}

func NewMiddlewareManager(origins []string, logger logger.Logger) *MiddlewareManager {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &MiddlewareManager{origins: origins, logger: logger}
}

func (mw *MiddlewareManager) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: mw.origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
		MaxAge:       300,
	})
}
