package handler

import (
	"github.com/labstack/echo/v4"
)

// currentUserID returns the uid set by the auth middleware, or "" when the
// request is unauthenticated.
func currentUserID(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}
