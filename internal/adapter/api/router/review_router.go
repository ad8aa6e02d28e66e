package router

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/handler"
	"minimarket/internal/adapter/api/middleware"
)

func SetupReviewRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	reviewHandler := handler.GetReviewHandler()

	e.GET("/v1/products/:id/reviews", reviewHandler.ListReviews, authMiddleware.Optional)

	authenticated := e.Group("/v1/products/:id/reviews", authMiddleware.Authenticate)
	authenticated.PUT("", reviewHandler.SubmitReview)
	authenticated.DELETE("/mine", reviewHandler.DeleteMyReview)
}
