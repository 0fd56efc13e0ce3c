package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	resources := r.Group("/resources")
	resources.Use(authMiddleware)
	{
		resources.GET("", h.List)
		resources.GET("/:id", h.Get)
		resources.POST("", h.Create)
		resources.PATCH("/:id", h.Update)
		resources.DELETE("/:id", h.Delete)
		resources.POST("/:id/file", h.UploadFile)
	}
}
