package router

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"togetherly/internal/adapter/api/handler"
	"togetherly/internal/adapter/api/middleware"
)

func SetupMediaRouter(e *echo.Echo, mediaHandler *handler.MediaHandler, authMiddleware *middleware.AuthMiddleware) {
	media := e.Group("/v1/chat/media")
	media.Use(authMiddleware.Authenticate)

	media.POST("", mediaHandler.Upload, echomiddleware.BodyLimit("26M"))
	media.GET("", mediaHandler.List)
	media.DELETE("", mediaHandler.Delete)
}
