package router

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/handler"
	"minimarket/internal/adapter/api/middleware"
)

func SetupWishlistRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	wishlistHandler := handler.GetWishlistHandler()

	wishlistGroup := e.Group("/v1/wishlist", authMiddleware.Authenticate)
	wishlistGroup.GET("", wishlistHandler.GetWishlist)
	wishlistGroup.DELETE("/:entryId", wishlistHandler.RemoveFromWishlist)
}
