package http

import "github.com/labstack/echo/v4"

// Handler is anything that can mount its routes on the server's Echo
// instance. The server stays ignorant of the route set.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
