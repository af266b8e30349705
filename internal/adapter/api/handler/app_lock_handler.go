package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"togetherly/internal/infrastructure/session"
	"togetherly/internal/usecase"
	"togetherly/pkg/errors"
	"togetherly/pkg/response"
)

type AppLockHandler struct {
	appLockUseCase *usecase.AppLockUseCase
}

func NewAppLockHandler(appLockUseCase *usecase.AppLockUseCase) *AppLockHandler {
	return &AppLockHandler{
		appLockUseCase: appLockUseCase,
	}
}

type setPINRequest struct {
	PIN              string `json:"pin" validate:"required,numeric,min=4,max=8"`
	BiometricEnabled bool   `json:"biometric_enabled"`
}

type unlockRequest struct {
	PIN string `json:"pin" validate:"required"`
}

func (h *AppLockHandler) Status(c echo.Context) error {
	status, err := h.appLockUseCase.Status(c.Request().Context(), currentUserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, status)
}

func (h *AppLockHandler) SetPIN(c echo.Context) error {
	var req setPINRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.appLockUseCase.SetPIN(c.Request().Context(), currentUserID(c), req.PIN, req.BiometricEnabled); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"enabled": true})
}

func (h *AppLockHandler) Unlock(c echo.Context) error {
	var req unlockRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.appLockUseCase.Unlock(c.Request().Context(), currentUserID(c), req.PIN)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *AppLockHandler) RemovePIN(c echo.Context) error {
	if err := h.appLockUseCase.RemovePIN(c.Request().Context(), currentUserID(c)); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"enabled": false})
}

// PrivateSession reports the unlock session attached by RequireUnlocked.
func (h *AppLockHandler) PrivateSession(c echo.Context) error {
	s, ok := session.FromContext(c.Request().Context())
	if !ok {
		return response.Error(c, errors.Forbidden("App is locked", nil))
	}

	return response.Success(c, map[string]interface{}{
		"user_id":     s.UserID,
		"unlocked_at": s.UnlockedAt,
		"expires_at":  s.ExpiresAt,
		"remaining":   time.Until(s.ExpiresAt).Round(time.Second).String(),
	})
}
