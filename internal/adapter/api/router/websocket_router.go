package router

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers the session event stream. The handler
// authenticates from the query string.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/v1/ws/session", wsHandler.HandleSessionEvents)
}
