package http

import (
	"github.com/amankumarsingh77/tg-video-relay/internal/tasks"
	"github.com/labstack/echo/v4"
)

func MapTaskRoutes(taskGroup *echo.Group, h tasks.Handler) {
	taskGroup.POST("", h.Submit())
	taskGroup.GET("", h.Search())
	taskGroup.GET("/stats", h.Statistics())
	taskGroup.GET("/:task_id", h.GetByID())
	taskGroup.GET("/:task_id/results", h.GetResults())
	taskGroup.GET("/:task_id/progress", h.GetProgress())
	taskGroup.POST("/:task_id/retry", h.Retry())
	taskGroup.POST("/:task_id/cancel", h.Cancel())
	taskGroup.POST("/:task_id/process", h.Process())
	taskGroup.DELETE("/:task_id", h.Delete())
}

func MapVideoRoutes(videoGroup *echo.Group, h tasks.Handler) {
	videoGroup.GET("/metadata", h.VideoMetadata())
	videoGroup.GET("/formats", h.VideoFormats())
}
