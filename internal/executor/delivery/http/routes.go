package http

import (
	"github.com/amankumarsingh77/tg-video-relay/internal/executor"
	"github.com/labstack/echo/v4"
)

func MapExecutorRoutes(executorGroup *echo.Group, h executor.Handler) {
	executorGroup.GET("/status", h.Status())
	executorGroup.GET("/stats", h.Statistics())
	executorGroup.PUT("/config", h.UpdateConfig())
	executorGroup.POST("/memory/disable", h.DisableMemoryChecks())
}
