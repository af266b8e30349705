package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminOnly admits callers whose ID token carries the admin custom claim.
// It must run after Authenticate.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if uid, ok := c.Get("uid").(string); !ok || uid == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}

		if admin, _ := c.Get("admin").(bool); !admin {
			return echo.NewHTTPError(http.StatusForbidden, "Admin privileges required")
		}

		return next(c)
	}
}
