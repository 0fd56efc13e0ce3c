package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/response"
	"github.com/nekogravitycat/mentorship-backend/internal/session"
)

type Handler struct {
	service session.Service
}

func NewHandler(service session.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListSessionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	list, total, err := h.service.List(c.Request.Context(), auth.CurrentActor(c), session.Filter{
		MentorID:  req.MentorID,
		LearnerID: req.LearnerID,
		Status:    req.Status,
		From:      req.From,
		To:        req.To,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.Order(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.MapPage(list, NewSessionResponse, req.Page, req.PageSize, total))
}

func (h *Handler) Book(c *gin.Context) {
	var body BookSessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	s, err := h.service.Book(c.Request.Context(), auth.CurrentActor(c), session.BookRequest{
		SlotID:   body.SlotID,
		CourseID: body.CourseID,
		Topic:    body.Topic,
		Notes:    body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewSessionResponse(s))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), auth.CurrentActor(c), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSessionResponse(s))
}

type transitionFunc func(ctx context.Context, actor auth.Actor, id string) (*session.Session, error)

func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	s, err := fn(c.Request.Context(), auth.CurrentActor(c), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSessionResponse(s))
}

func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

func (h *Handler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

func (h *Handler) Reject(c *gin.Context) {
	h.withReason(c, h.service.Reject)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.withReason(c, h.service.Cancel)
}

// withReason binds an optional reason body. An empty body is accepted.
func (h *Handler) withReason(c *gin.Context, fn func(ctx context.Context, actor auth.Actor, id, reason string) (*session.Session, error)) {
	var body ReasonBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "invalid request body", err)
			return
		}
	}
	h.transition(c, func(ctx context.Context, actor auth.Actor, id string) (*session.Session, error) {
		return fn(ctx, actor, id, body.Reason)
	})
}

func (h *Handler) Reschedule(c *gin.Context) {
	var body RescheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	h.transition(c, func(ctx context.Context, actor auth.Actor, id string) (*session.Session, error) {
		return h.service.Reschedule(ctx, actor, id, body.SlotID)
	})
}
