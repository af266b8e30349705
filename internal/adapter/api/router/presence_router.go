package router

import (
	"github.com/labstack/echo/v4"

	"togetherly/internal/adapter/api/handler"
	"togetherly/internal/adapter/api/middleware"
)

func SetupPresenceRouter(e *echo.Echo, presenceHandler *handler.PresenceHandler, authMiddleware *middleware.AuthMiddleware) {
	presence := e.Group("/v1/presence")
	presence.Use(authMiddleware.Authenticate)
	presence.POST("/active", presenceHandler.MarkActive)
	presence.GET("/:uid", presenceHandler.GetPresence)

	e.PUT("/v1/chat/threads/:id/typing", presenceHandler.SetTyping, authMiddleware.Authenticate)
	e.GET("/v1/chat/threads/:id/typing", presenceHandler.ListTyping, authMiddleware.Authenticate)
}
