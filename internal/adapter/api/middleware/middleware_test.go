package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/internal/infrastructure/session"
	apperrors "togetherly/pkg/errors"
)

type fakeTokenVerifier struct {
	tokens map[string]*auth.Token
}

func (f *fakeTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if token, ok := f.tokens[idToken]; ok {
		return token, nil
	}
	return nil, errors.New("invalid token")
}

type fakeSessionVerifier struct{}

func (fakeSessionVerifier) VerifySession(token, userID string) (*session.Session, error) {
	if token != "good-"+userID {
		return nil, apperrors.Forbidden("App lock session is invalid or expired", nil)
	}
	return &session.Session{UserID: userID, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var httpErr *echo.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected echo.HTTPError, got %v", err)
	return httpErr.Code
}

func TestAuthenticate(t *testing.T) {
	verifier := &fakeTokenVerifier{tokens: map[string]*auth.Token{
		"user-token":  {UID: "alice", Claims: map[string]interface{}{}},
		"admin-token": {UID: "root", Claims: map[string]interface{}{"admin": true}},
	}}
	mw := NewAuthMiddleware(verifier)

	t.Run("missing header", func(t *testing.T) {
		c, _ := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, httpCode(t, mw.Authenticate(okHandler)(c)))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic user-token")
		c, _ := newContext(req)
		assert.Equal(t, http.StatusUnauthorized, httpCode(t, mw.Authenticate(okHandler)(c)))
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer forged")
		c, _ := newContext(req)
		assert.Equal(t, http.StatusUnauthorized, httpCode(t, mw.Authenticate(okHandler)(c)))
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer user-token")
		c, rec := newContext(req)
		require.NoError(t, mw.Authenticate(okHandler)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", c.Get("uid"))
		assert.Nil(t, c.Get("admin"))
	})

	t.Run("admin claim", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer admin-token")
		c, _ := newContext(req)
		require.NoError(t, mw.Authenticate(okHandler)(c))
		assert.Equal(t, true, c.Get("admin"))
	})

	t.Run("websocket query token", func(t *testing.T) {
		c, _ := newContext(httptest.NewRequest(http.MethodGet, "/ws?token=user-token", nil))
		require.NoError(t, mw.AuthenticateWebSocket(okHandler)(c))
		assert.Equal(t, "alice", c.Get("uid"))
	})
}

func TestAdminOnly(t *testing.T) {
	c, _ := newContext(httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, AdminOnly(okHandler)(c)))

	c, _ = newContext(httptest.NewRequest(http.MethodPost, "/", nil))
	c.Set("uid", "alice")
	assert.Equal(t, http.StatusForbidden, httpCode(t, AdminOnly(okHandler)(c)))

	c, rec := newContext(httptest.NewRequest(http.MethodPost, "/", nil))
	c.Set("uid", "root")
	c.Set("admin", true)
	require.NoError(t, AdminOnly(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireUnlocked(t *testing.T) {
	mw := NewAppLockMiddleware(fakeSessionVerifier{})

	tests := []struct {
		name     string
		uid      string
		token    string
		wantCode int
	}{
		{"unauthenticated", "", "good-alice", http.StatusUnauthorized},
		{"locked", "alice", "", http.StatusForbidden},
		{"token for someone else", "alice", "good-bob", http.StatusForbidden},
		{"unlocked", "alice", "good-alice", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/private/session", nil)
			if tt.token != "" {
				req.Header.Set(AppLockTokenHeader, tt.token)
			}
			c, rec := newContext(req)
			if tt.uid != "" {
				c.Set("uid", tt.uid)
			}

			var seen *session.Session
			handler := func(c echo.Context) error {
				seen, _ = session.FromContext(c.Request().Context())
				return c.NoContent(http.StatusOK)
			}

			require.NoError(t, mw.RequireUnlocked(handler)(c))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, tt.uid, seen.UserID)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}

func TestLoadSession_PassesThroughWithoutToken(t *testing.T) {
	mw := NewAppLockMiddleware(fakeSessionVerifier{})

	req := httptest.NewRequest(http.MethodPut, "/v1/app-lock/pin", nil)
	req.Header.Set(AppLockTokenHeader, "good-bob")
	c, rec := newContext(req)
	c.Set("uid", "alice")

	require.NoError(t, mw.LoadSession(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get("app_lock_session"))
}

func TestRateLimit(t *testing.T) {
	limited := RateLimit(ratelimit.NewRateLimiter())(okHandler)

	var lastCode int
	for i := 0; i < 61; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		c, rec := newContext(req)
		require.NoError(t, limited(c))
		lastCode = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}
