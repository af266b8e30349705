package router

import (
	"github.com/labstack/echo/v4"

	"togetherly/internal/adapter/api/handler"
	"togetherly/internal/adapter/api/middleware"
)

func SetupAppLockRouter(e *echo.Echo, appLockHandler *handler.AppLockHandler, authMiddleware *middleware.AuthMiddleware, appLockMiddleware *middleware.AppLockMiddleware) {
	lock := e.Group("/v1/app-lock")
	lock.Use(authMiddleware.Authenticate)

	lock.GET("", appLockHandler.Status)
	lock.PUT("/pin", appLockHandler.SetPIN, appLockMiddleware.LoadSession)
	lock.DELETE("/pin", appLockHandler.RemovePIN, appLockMiddleware.RequireUnlocked)
	lock.POST("/unlock", appLockHandler.Unlock)

	private := e.Group("/v1/private")
	private.Use(authMiddleware.Authenticate)
	private.Use(appLockMiddleware.RequireUnlocked)
	private.GET("/session", appLockHandler.PrivateSession)
}
