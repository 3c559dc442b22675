package results

import "github.com/labstack/echo/v4"

type Handler interface {
	Search() echo.HandlerFunc
	Statistics() echo.HandlerFunc
	GetByID() echo.HandlerFunc
	SetPrimary() echo.HandlerFunc
	Delete() echo.HandlerFunc
}
