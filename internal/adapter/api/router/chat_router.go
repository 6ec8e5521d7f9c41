package router

import (
	"github.com/labstack/echo/v4"

	"veridax/internal/adapter/api/handler"
	"veridax/internal/adapter/api/middleware"
)

// SetupChatRouter wires all conversation routes (excluding WebSocket).
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	conversationGroup := e.Group("/v1/conversations")
	conversationGroup.Use(authMiddleware.Authenticate)

	// Conversation management
	conversationGroup.GET("", chatHandler.ListConversations)
	conversationGroup.POST("", chatHandler.CreateConversation)

	// Message log
	conversationGroup.GET("/:id/messages", chatHandler.ListMessages)
	conversationGroup.POST("/:id/messages", chatHandler.SendMessage)
	conversationGroup.POST("/:id/attachments", chatHandler.SendAttachment)

	// Derived views
	conversationGroup.GET("/:id/media", chatHandler.SharedMedia)
	conversationGroup.GET("/:id/files", chatHandler.SharedFiles)
	conversationGroup.GET("/:id/links", chatHandler.SharedLinks)
}
