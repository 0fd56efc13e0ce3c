package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/dashboard")
	group.Use(authMiddleware)
	{
		group.GET("/mentor", h.Mentor)
	}

	adminGroup := group.Group("")
	adminGroup.Use(adminMiddleware)
	{
		adminGroup.GET("/admin", h.Admin)
	}
}
