package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/pkg/logger"
)

// RateLimit throttles requests per client IP using the shared limiter.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			allowed, retryAfter := limiter.Allow(ip, ratelimit.ActionRequest)
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				logger.Warn("RATE LIMIT: Blocked request from IP %s (retry in %ds)", ip, seconds)

				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":       "Rate limit exceeded",
					"retry_after": seconds,
				})
			}

			return next(c)
		}
	}
}
