package handler

import (
	"github.com/labstack/echo/v4"

	"togetherly/internal/usecase"
	"togetherly/pkg/response"
)

type ModerationHandler struct {
	moderationUseCase *usecase.ModerationUseCase
}

func NewModerationHandler(moderationUseCase *usecase.ModerationUseCase) *ModerationHandler {
	return &ModerationHandler{
		moderationUseCase: moderationUseCase,
	}
}

type submitPendingRequest struct {
	Text      string `json:"text" validate:"required,max=4000"`
	MediaURL  string `json:"media_url,omitempty" validate:"omitempty,url"`
	MediaType string `json:"media_type,omitempty" validate:"omitempty,oneof=image video"`
}

// SubmitPending stages a message for moderation. The outcome arrives later.
func (h *ModerationHandler) SubmitPending(c echo.Context) error {
	var req submitPendingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	pending, err := h.moderationUseCase.SubmitPending(c.Request().Context(), currentUserID(c), c.Param("id"), usecase.SubmitPendingInput{
		Text:      req.Text,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Accepted(c, pending)
}

func (h *ModerationHandler) GetPending(c echo.Context) error {
	pending, err := h.moderationUseCase.GetPending(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, pending)
}

// ProcessPending re-delivers one record to the gate. Admin only.
func (h *ModerationHandler) ProcessPending(c echo.Context) error {
	outcome, err := h.moderationUseCase.ProcessByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, outcome)
}
