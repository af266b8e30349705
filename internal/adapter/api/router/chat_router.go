package router

import (
	"github.com/labstack/echo/v4"

	"togetherly/internal/adapter/api/handler"
	"togetherly/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	threads := e.Group("/v1/chat/threads")
	threads.Use(authMiddleware.Authenticate)

	// Threads
	threads.POST("", chatHandler.StartThread)
	threads.GET("", chatHandler.ListThreads)
	threads.GET("/:id", chatHandler.GetThread)
	threads.PUT("/:id/read", chatHandler.MarkThreadRead)

	// Messages
	threads.POST("/:id/messages", chatHandler.SendMessage)
	threads.GET("/:id/messages", chatHandler.ListMessages)
	threads.PUT("/:id/messages/:messageId/reaction", chatHandler.ReactToMessage)
	threads.GET("/:id/room-messages", chatHandler.ListRoomMessages)
}
