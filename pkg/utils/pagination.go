package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// PaginationParams represents limit/offset pagination parameters
type PaginationParams struct {
	Limit  int
	Offset int
}

// GetPaginationParams reads ?limit and ?offset, falling back to defaultLimit
// and capping at 100.
func GetPaginationParams(c echo.Context, defaultLimit int) PaginationParams {
	limit := defaultLimit
	offset := 0

	if parsed, err := strconv.Atoi(c.QueryParam("limit")); err == nil && parsed > 0 {
		limit = parsed
	}
	if limit > 100 {
		limit = 100
	}

	if parsed, err := strconv.Atoi(c.QueryParam("offset")); err == nil && parsed >= 0 {
		offset = parsed
	}

	return PaginationParams{
		Limit:  limit,
		Offset: offset,
	}
}
