package router

import (
	"github.com/labstack/echo/v4"

	"togetherly/internal/adapter/api/handler"
	"togetherly/internal/adapter/api/middleware"
)

func SetupModerationRouter(e *echo.Echo, moderationHandler *handler.ModerationHandler, authMiddleware *middleware.AuthMiddleware) {
	e.POST("/v1/chat/threads/:id/pending", moderationHandler.SubmitPending, authMiddleware.Authenticate)

	moderation := e.Group("/v1/moderation")
	moderation.Use(authMiddleware.Authenticate)
	moderation.GET("/pending/:id", moderationHandler.GetPending)

	admin := e.Group("/v1/admin/moderation")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(middleware.AdminOnly)
	admin.POST("/pending/:id/process", moderationHandler.ProcessPending)
}
