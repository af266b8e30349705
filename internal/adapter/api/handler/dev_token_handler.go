package handler

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"togetherly/internal/domain/repository"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
	"togetherly/pkg/response"
)

// CustomTokenMinter is satisfied by the Firebase auth client.
type CustomTokenMinter interface {
	CustomToken(ctx context.Context, uid string, admin bool) (string, error)
}

// DevTokenHandler hands out sign-in tokens for seeded test accounts. It is
// only routed in development.
type DevTokenHandler struct {
	minter   CustomTokenMinter
	userRepo repository.UserRepository
}

func NewDevTokenHandler(minter CustomTokenMinter, userRepo repository.UserRepository) *DevTokenHandler {
	return &DevTokenHandler{
		minter:   minter,
		userRepo: userRepo,
	}
}

type devTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Admin bool   `json:"admin"`
}

func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	user, err := h.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return response.Error(c, err)
	}

	token, err := h.minter.CustomToken(ctx, user.ID, req.Admin)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to mint custom token", err))
	}

	logger.Warn("DEV: issued custom token for %s (admin=%t)", user.ID, req.Admin)

	return response.Success(c, map[string]interface{}{
		"custom_token": token,
		"user":         user,
	})
}
