package middleware

import (
	"time"

	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
	"github.com/labstack/echo/v4"
)

// RequestLoggerMiddleware logs one line per request with its status and latency.
func (mw *MiddlewareManager) RequestLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		req := c.Request()
		res := c.Response()
		if err != nil {
			c.Error(err)
		}
		mw.logger.Infof("RequestID: %s, Method: %s, URI: %s, Status: %d, Size: %d, Time: %s",
			utils.GetRequestID(c), req.Method, req.URL.String(), res.Status, res.Size, time.Since(start))
		return nil
	}
}
