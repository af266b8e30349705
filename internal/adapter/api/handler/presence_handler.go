package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"togetherly/internal/usecase"
	"togetherly/pkg/errors"
	"togetherly/pkg/response"
)

type PresenceHandler struct {
	presenceUseCase *usecase.PresenceUseCase
}

func NewPresenceHandler(presenceUseCase *usecase.PresenceUseCase) *PresenceHandler {
	return &PresenceHandler{
		presenceUseCase: presenceUseCase,
	}
}

type typingRequest struct {
	Typing *bool `json:"typing" validate:"required"`
}

func (h *PresenceHandler) MarkActive(c echo.Context) error {
	if err := h.presenceUseCase.MarkActive(c.Request().Context(), currentUserID(c)); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "active"})
}

// GetPresence accepts ?threshold= as a duration ("90s") or whole seconds.
func (h *PresenceHandler) GetPresence(c echo.Context) error {
	threshold, err := parseThreshold(c.QueryParam("threshold"))
	if err != nil {
		return response.Error(c, errors.BadRequest("Invalid threshold", err))
	}

	status, err := h.presenceUseCase.GetPresence(c.Request().Context(), c.Param("uid"), threshold)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, status)
}

func parseThreshold(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func (h *PresenceHandler) SetTyping(c echo.Context) error {
	var req typingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	threadID := c.Param("id")
	if err := h.presenceUseCase.SetTyping(c.Request().Context(), currentUserID(c), threadID, *req.Typing); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"thread_id": threadID,
		"typing":    *req.Typing,
	})
}

func (h *PresenceHandler) ListTyping(c echo.Context) error {
	typers, err := h.presenceUseCase.ListTyping(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, typers)
}
