package middleware

import (
	"github.com/labstack/echo/v4"

	"togetherly/internal/infrastructure/session"
	"togetherly/pkg/errors"
	"togetherly/pkg/response"
)

const AppLockTokenHeader = "X-App-Lock-Token"

// SessionVerifier turns an unlock token into a session for userID.
type SessionVerifier interface {
	VerifySession(token, userID string) (*session.Session, error)
}

type AppLockMiddleware struct {
	verifier SessionVerifier
}

func NewAppLockMiddleware(verifier SessionVerifier) *AppLockMiddleware {
	return &AppLockMiddleware{verifier: verifier}
}

// LoadSession attaches the unlock session when a valid token is present and
// passes the request through either way.
func (m *AppLockMiddleware) LoadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get(AppLockTokenHeader)
		uid, _ := c.Get("uid").(string)
		if token == "" || uid == "" {
			return next(c)
		}

		if s, err := m.verifier.VerifySession(token, uid); err == nil {
			attach(c, s)
		}
		return next(c)
	}
}

// RequireUnlocked rejects requests without a valid unlock token for the
// authenticated user.
func (m *AppLockMiddleware) RequireUnlocked(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, _ := c.Get("uid").(string)
		if uid == "" {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		token := c.Request().Header.Get(AppLockTokenHeader)
		if token == "" {
			return response.Error(c, errors.Forbidden("App is locked", nil))
		}

		s, err := m.verifier.VerifySession(token, uid)
		if err != nil {
			return response.Error(c, err)
		}

		attach(c, s)
		return next(c)
	}
}

func attach(c echo.Context, s *session.Session) {
	req := c.Request()
	c.SetRequest(req.WithContext(session.WithSession(req.Context(), s)))
	c.Set("app_lock_session", s)
}
