package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/dashboard"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/response"
)

type Handler struct {
	service dashboard.Service
}

func NewHandler(service dashboard.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Admin(c *gin.Context) {
	stats, err := h.service.Admin(c.Request.Context(), auth.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAdminStatsResponse(stats))
}

func (h *Handler) Mentor(c *gin.Context) {
	stats, err := h.service.Mentor(c.Request.Context(), auth.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewMentorStatsResponse(stats))
}
