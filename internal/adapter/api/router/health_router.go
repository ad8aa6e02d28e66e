package router

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/handler"
)

func SetupHealthRouter(e *echo.Echo, metricsHandler echo.HandlerFunc) {
	healthHandler := handler.GetHealthHandler()
	e.GET("/health", healthHandler.CheckHealth)
	if metricsHandler != nil {
		e.GET("/metrics", metricsHandler)
	}
}
