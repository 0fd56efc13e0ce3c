package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	messages := g.Group("/messages")
	messages.Use(authMiddleware)
	{
		messages.POST("", h.Send)
		messages.GET("/unread", h.Unread)
		messages.GET("/stream", h.Stream)
	}

	conversations := g.Group("/conversations")
	conversations.Use(authMiddleware)
	{
		conversations.GET("", h.ListConversations)
		conversations.GET("/:id/messages", h.ListConversation)
		conversations.POST("/:id/read", h.MarkRead)
	}
}
