package handler

import (
	"github.com/labstack/echo/v4"

	"togetherly/internal/usecase"
	"togetherly/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type syncProfileRequest struct {
	DisplayName string `json:"display_name" validate:"max=64"`
}

func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	user, err := h.userUseCase.GetProfile(c.Request().Context(), currentUserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

// SyncProfile creates or refreshes users/{uid} from the caller's auth record.
func (h *UserHandler) SyncProfile(c echo.Context) error {
	var req syncProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.SyncProfile(c.Request().Context(), currentUserID(c), usecase.SyncProfileInput{
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}
