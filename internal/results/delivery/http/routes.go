package http

import (
	"github.com/amankumarsingh77/tg-video-relay/internal/results"
	"github.com/labstack/echo/v4"
)

func MapResultRoutes(resultGroup *echo.Group, h results.Handler) {
	resultGroup.GET("", h.Search())
	resultGroup.GET("/stats", h.Statistics())
	resultGroup.GET("/:result_id", h.GetByID())
	resultGroup.POST("/:result_id/primary", h.SetPrimary())
	resultGroup.DELETE("/:result_id", h.Delete())
}
