package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/course"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/response"
)

type Handler struct {
	service course.Service
}

func NewHandler(service course.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListCoursesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	list, total, err := h.service.List(c.Request.Context(), auth.CurrentActor(c), course.Filter{
		CategoryID: req.CategoryID,
		MentorID:   req.MentorID,
		Level:      course.Level(req.Level),
		Keyword:    req.Keyword,
		Published:  req.Published,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  req.Order(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.MapPage(list, NewCourseResponse, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	crs, err := h.service.GetByID(c.Request.Context(), auth.CurrentActor(c), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCourseResponse(crs))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateCourseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	crs, err := h.service.Create(c.Request.Context(), auth.CurrentActor(c), course.CreateRequest{
		MentorID:    body.MentorID,
		CategoryID:  body.CategoryID,
		Title:       body.Title,
		Description: body.Description,
		Level:       course.Level(body.Level),
		IsPublished: body.IsPublished,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewCourseResponse(crs))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateCourseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := course.UpdateRequest{
		CategoryID:  body.CategoryID,
		Title:       body.Title,
		Description: body.Description,
		IsPublished: body.IsPublished,
	}
	if body.Level != nil {
		lvl := course.Level(*body.Level)
		req.Level = &lvl
	}

	crs, err := h.service.Update(c.Request.Context(), auth.CurrentActor(c), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCourseResponse(crs))
}

func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.CurrentActor(c), req.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
