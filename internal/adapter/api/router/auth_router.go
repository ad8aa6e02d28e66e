package router

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/handler"
	"minimarket/internal/adapter/api/middleware"
)

func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, authLimiter echo.MiddlewareFunc) {
	authHandler := handler.GetAuthHandler()

	// Credential endpoints are rate limited per client IP.
	public := e.Group("/v1/auth", authLimiter)
	public.POST("/signup", authHandler.SignUp)
	public.POST("/signin", authHandler.SignIn)
	public.POST("/password/reset", authHandler.RequestPasswordReset)

	e.POST("/v1/auth/refresh", authHandler.Refresh)

	optional := e.Group("/v1/auth", authMiddleware.Optional)
	optional.GET("/session", authHandler.Session)
	optional.POST("/password", authHandler.CommitNewPassword)

	protected := e.Group("/v1/auth", authMiddleware.Authenticate)
	protected.POST("/signout", authHandler.SignOut)
}
