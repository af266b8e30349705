package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"togetherly/pkg/logger"
)

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type AuthMiddleware struct {
	authClient TokenVerifier
}

func NewAuthMiddleware(authClient TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		authClient: authClient,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
		}

		// Check if the Authorization header has the right format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		return m.verify(c, next, parts[1])
	}
}

// AuthenticateWebSocket also accepts the ID token as ?token=, since browsers
// cannot set headers on a websocket handshake.
func (m *AuthMiddleware) AuthenticateWebSocket(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token := c.QueryParam("token"); token != "" {
			return m.verify(c, next, token)
		}
		return m.Authenticate(next)(c)
	}
}

func (m *AuthMiddleware) verify(c echo.Context, next echo.HandlerFunc, idToken string) error {
	token, err := m.authClient.VerifyIDToken(c.Request().Context(), idToken)
	if err != nil {
		logger.Debug("ID token rejected: %v", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	// Add the user ID to the context
	c.Set("uid", token.UID)
	if admin, ok := token.Claims["admin"].(bool); ok && admin {
		c.Set("admin", true)
	}

	return next(c)
}
