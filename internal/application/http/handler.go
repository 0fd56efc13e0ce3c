package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/mentorship-backend/internal/application"
	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/response"
)

type Handler struct {
	service application.Service
}

func NewHandler(service application.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListApplicationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	list, total, err := h.service.List(c.Request.Context(), auth.CurrentActor(c), application.Filter{
		Status:    req.Status,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.Order(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.MapPage(list, NewApplicationResponse, req.Page, req.PageSize, total))
}

func (h *Handler) Submit(c *gin.Context) {
	var body ApplicationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	a, err := h.service.Submit(c.Request.Context(), auth.CurrentActor(c), body.toRequest())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewApplicationResponse(a))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), auth.CurrentActor(c), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewApplicationResponse(a))
}

func (h *Handler) Resubmit(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body ApplicationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	a, err := h.service.Resubmit(c.Request.Context(), auth.CurrentActor(c), uri.ID, body.toRequest())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewApplicationResponse(a))
}

type reviewFunc func(ctx context.Context, actor auth.Actor, id, note string) (*application.Application, error)

func (h *Handler) review(c *gin.Context, fn reviewFunc) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body ReviewBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "invalid request body", err)
			return
		}
	}

	a, err := fn(c.Request.Context(), auth.CurrentActor(c), uri.ID, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewApplicationResponse(a))
}

func (h *Handler) RequestInfo(c *gin.Context) { h.review(c, h.service.RequestInfo) }
func (h *Handler) Approve(c *gin.Context)     { h.review(c, h.service.Approve) }
func (h *Handler) Reject(c *gin.Context)      { h.review(c, h.service.Reject) }
