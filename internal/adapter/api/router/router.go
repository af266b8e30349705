package router

import (
	"github.com/labstack/echo/v4"

	"togetherly/internal/adapter/api/handler"
	"togetherly/internal/adapter/api/middleware"
)

type Handlers struct {
	Health     *handler.HealthHandler
	User       *handler.UserHandler
	Chat       *handler.ChatHandler
	Moderation *handler.ModerationHandler
	Presence   *handler.PresenceHandler
	AppLock    *handler.AppLockHandler
	Media      *handler.MediaHandler
	WebSocket  *handler.WebSocketHandler
	DevToken   *handler.DevTokenHandler
}

func Setup(e *echo.Echo, h Handlers, environment string, authMiddleware *middleware.AuthMiddleware, appLockMiddleware *middleware.AppLockMiddleware) {
	SetupHealthRouter(e, h.Health)
	SetupUserRouter(e, h.User, authMiddleware)
	SetupChatRouter(e, h.Chat, authMiddleware)
	SetupModerationRouter(e, h.Moderation, authMiddleware)
	SetupPresenceRouter(e, h.Presence, authMiddleware)
	SetupAppLockRouter(e, h.AppLock, authMiddleware, appLockMiddleware)
	SetupMediaRouter(e, h.Media, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)
	SetupDevRouter(e, h.DevToken, environment)
}
