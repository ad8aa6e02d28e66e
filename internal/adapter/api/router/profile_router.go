package router

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/handler"
	"minimarket/internal/adapter/api/middleware"
)

func SetupProfileRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	profileHandler := handler.GetProfileHandler()

	profile := e.Group("/v1/profile", authMiddleware.Authenticate)
	profile.GET("", profileHandler.GetProfile)
	profile.DELETE("/products/:id", profileHandler.DeleteProduct)
}
