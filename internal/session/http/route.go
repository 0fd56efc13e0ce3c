package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/sessions")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Book)
		group.GET("/:id", h.Get)
		group.POST("/:id/approve", h.Approve)
		group.POST("/:id/reject", h.Reject)
		group.POST("/:id/cancel", h.Cancel)
		group.POST("/:id/complete", h.Complete)
		group.POST("/:id/reschedule", h.Reschedule)
	}
}
