package executor

import "github.com/labstack/echo/v4"

type Handler interface {
	Status() echo.HandlerFunc
	Statistics() echo.HandlerFunc
	UpdateConfig() echo.HandlerFunc
	DisableMemoryChecks() echo.HandlerFunc
}
