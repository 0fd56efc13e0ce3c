package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/applications")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Submit)
		group.GET("/:id", h.Get)
		group.PUT("/:id", h.Resubmit)
	}

	// === Review Routes (Admin Only) ===
	reviewGroup := group.Group("")
	reviewGroup.Use(adminMiddleware)
	{
		reviewGroup.POST("/:id/request-info", h.RequestInfo)
		reviewGroup.POST("/:id/approve", h.Approve)
		reviewGroup.POST("/:id/reject", h.Reject)
	}
}
