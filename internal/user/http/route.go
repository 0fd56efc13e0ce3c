package http

import "github.com/gin-gonic/gin"

// RegisterRoutes wires authentication, self-service and admin user routes.
func RegisterRoutes(r *gin.RouterGroup, h *UserHandler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	// === Public Routes ===
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	// === Self-service Routes ===
	me := r.Group("/me")
	me.Use(authMiddleware)
	{
		me.GET("", h.Me)
		me.PATCH("", h.UpdateMe)
		me.POST("/avatar", h.UploadAvatar)
	}

	// === User Directory ===
	users := r.Group("/users")
	users.Use(authMiddleware)
	{
		users.GET("/:id", h.Get)
	}

	// === Administration Routes (Admin Only) ===
	admin := users.Group("")
	admin.Use(adminMiddleware)
	{
		admin.GET("", h.List)
		admin.PATCH("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}
