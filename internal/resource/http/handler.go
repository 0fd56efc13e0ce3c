package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	fileHttp "github.com/nekogravitycat/mentorship-backend/internal/file/http"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/response"
	"github.com/nekogravitycat/mentorship-backend/internal/resource"
)

const maxDocumentBytes = 20 << 20

var documentTypes = []string{
	"application/pdf",
	"text/plain",
	"application/zip",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"image/png",
	"image/jpeg",
}

// FileRemover deletes stored files that a resource no longer references.
type FileRemover interface {
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	service  resource.Service
	uploader fileHttp.Uploader
	files    FileRemover
	logger   *zap.Logger
}

func NewHandler(service resource.Service, uploader fileHttp.Uploader, files FileRemover, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		uploader: uploader,
		files:    files,
		logger:   logger,
	}
}

func (h *Handler) List(c *gin.Context) {
	var req ListResourcesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	resources, total, err := h.service.List(c.Request.Context(), resource.Filter{
		CourseID:  req.CourseID,
		OwnerID:   req.OwnerID,
		Kind:      resource.Kind(req.Kind),
		Keyword:   req.Keyword,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.Order(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.MapPage(resources, NewResponse, req.Page, req.PageSize, total))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	res, err := h.service.Create(c.Request.Context(), auth.CurrentActor(c), resource.CreateRequest{
		CourseID:    body.CourseID,
		Title:       body.Title,
		Description: body.Description,
		Kind:        resource.Kind(body.Kind),
		URL:         body.URL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewResponse(res))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	res, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(res))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	res, err := h.service.Update(c.Request.Context(), auth.CurrentActor(c), uri.ID, resource.UpdateRequest{
		CourseID:    body.CourseID,
		Title:       body.Title,
		Description: body.Description,
		URL:         body.URL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(res))
}

func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	fileID, err := h.service.Delete(c.Request.Context(), auth.CurrentActor(c), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.removeFile(c.Request.Context(), fileID)

	c.Status(http.StatusNoContent)
}

// UploadFile stores a document and attaches it to the resource.
func (h *Handler) UploadFile(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	actor := auth.CurrentActor(c)

	h.uploader.HandleFileUpload(c, fileHttp.FileUploadConfig{
		FormFieldName: "file",
		MaxSizeBytes:  maxDocumentBytes,
		AllowedTypes:  documentTypes,
		AfterUpload: func(ctx context.Context, fileID string) error {
			previous, err := h.service.AttachFile(ctx, actor, uri.ID, fileID)
			if err != nil {
				return err
			}
			h.removeFile(ctx, previous)
			return nil
		},
	})
}

func (h *Handler) removeFile(ctx context.Context, id *string) {
	if id == nil {
		return
	}
	if err := h.files.Delete(ctx, *id); err != nil {
		h.logger.Warn("failed to delete detached resource file", zap.String("file_id", *id), zap.Error(err))
	}
}
