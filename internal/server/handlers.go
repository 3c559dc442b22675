package server

import (
	"net/http"

	executorHttp "github.com/amankumarsingh77/tg-video-relay/internal/executor/delivery/http"
	"github.com/amankumarsingh77/tg-video-relay/internal/middleware"
	resultHttp "github.com/amankumarsingh77/tg-video-relay/internal/results/delivery/http"
	taskHttp "github.com/amankumarsingh77/tg-video-relay/internal/tasks/delivery/http"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
	"github.com/labstack/echo/v4"
)

func (s *Server) MapHandlers(e *echo.Echo) {
	c := s.components

	taskHandlers := taskHttp.NewTaskHandler(c.TaskUC, c.Ingestion, s.logger)
	resultHandlers := resultHttp.NewResultHandler(c.ResultUC, s.logger)
	executorHandlers := executorHttp.NewExecutorHandler(c.Executor, s.logger)

	mw := middleware.NewMiddlewareManager(s.cfg.Server.AllowOrigins, s.logger)
	e.Use(mw.CORS())
	e.Use(mw.RequestLoggerMiddleware)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	taskGroup := v1.Group("/tasks")
	resultGroup := v1.Group("/results")
	executorGroup := v1.Group("/executor")
	videoGroup := v1.Group("/videos")

	taskHttp.MapTaskRoutes(taskGroup, taskHandlers)
	taskHttp.MapVideoRoutes(videoGroup, taskHandlers)
	resultHttp.MapResultRoutes(resultGroup, resultHandlers)
	executorHttp.MapExecutorRoutes(executorGroup, executorHandlers)

	health.GET("", func(ctx echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(ctx))
		return ctx.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
}
