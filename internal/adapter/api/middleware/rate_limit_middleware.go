package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"minimarket/internal/infrastructure/ratelimit"
	"minimarket/pkg/errors"
	"minimarket/pkg/logger"
	"minimarket/pkg/response"
)

// RateLimit throttles requests per client IP.
func RateLimit(rl *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if ok, wait := rl.Allow(ip); !ok {
				logger.Warn("rate limit: blocked %s %s from %s", c.Request().Method, c.Path(), ip)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return response.Error(c, errors.TooManyRequests("Too many attempts, please try again later"))
			}

			return next(c)
		}
	}
}
