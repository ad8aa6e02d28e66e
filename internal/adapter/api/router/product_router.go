package router

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/handler"
	"minimarket/internal/adapter/api/middleware"
)

func SetupProductRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	productHandler := handler.GetProductHandler()

	products := e.Group("/v1/products", authMiddleware.Optional)
	products.GET("", productHandler.ListProducts)
	products.GET("/:id", productHandler.GetProduct)

	owner := e.Group("/v1/products", authMiddleware.Authenticate)
	owner.POST("", productHandler.CreateProduct)
	owner.GET("/:id/edit", productHandler.GetProductForEdit)
	owner.PUT("/:id", productHandler.UpdateProduct)
	owner.DELETE("/:id", productHandler.DeleteProduct)
	owner.POST("/:id/wishlist", productHandler.ToggleWishlist)
}
