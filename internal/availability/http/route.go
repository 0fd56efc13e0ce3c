package http

import "github.com/gin-gonic/gin"

// RegisterRoutes wires availability windows and time slots. Mentor ownership
// is enforced by the service.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	// === Public schedule of a mentor ===
	mentors := g.Group("/mentors/:id")
	mentors.Use(authMiddleware)
	{
		mentors.GET("/availabilities", h.ListByMentor)
		mentors.GET("/slots", h.ListSlots)
	}

	availabilities := g.Group("/availabilities")
	availabilities.Use(authMiddleware)
	{
		availabilities.POST("", h.Create)
		availabilities.GET("/:id", h.Get)
		availabilities.PUT("/:id", h.Update)
		availabilities.DELETE("/:id", h.Delete)
	}

	slots := g.Group("/slots")
	slots.Use(authMiddleware)
	{
		slots.POST("", h.AddSlot)
		slots.GET("/:id", h.GetSlot)
		slots.POST("/:id/block", h.BlockSlot)
		slots.POST("/:id/unblock", h.UnblockSlot)
	}
}
