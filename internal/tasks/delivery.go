package tasks

import "github.com/labstack/echo/v4"

type Handler interface {
	Submit() echo.HandlerFunc
	Search() echo.HandlerFunc
	Statistics() echo.HandlerFunc
	GetByID() echo.HandlerFunc
	GetResults() echo.HandlerFunc
	GetProgress() echo.HandlerFunc
	Retry() echo.HandlerFunc
	Cancel() echo.HandlerFunc
	Process() echo.HandlerFunc
	Delete() echo.HandlerFunc

	VideoMetadata() echo.HandlerFunc
	VideoFormats() echo.HandlerFunc
}
