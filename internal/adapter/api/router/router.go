package router

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/handler"
	"minimarket/internal/adapter/api/middleware"
)

// Setup registers every route. authLimiter guards the credential endpoints.
func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	authLimiter echo.MiddlewareFunc,
	wsHandler *handler.WebSocketHandler,
	metricsHandler echo.HandlerFunc,
) {
	SetupHealthRouter(e, metricsHandler)
	SetupAuthRouter(e, authMiddleware, authLimiter)
	SetupProductRouter(e, authMiddleware)
	SetupReviewRouter(e, authMiddleware)
	SetupWishlistRouter(e, authMiddleware)
	SetupProfileRouter(e, authMiddleware)
	SetupWebSocketRouter(e, wsHandler)
}
