package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/file"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/response"
)

// FileUploadConfig defines the configuration for generic file uploads
type FileUploadConfig struct {
	FormFieldName string                                         // Form field holding the file (default: "file")
	MaxSizeBytes  int64                                          // Maximum size in bytes (0 = no limit)
	AllowedTypes  []string                                       // Allowed MIME types (empty = allow all)
	ResizeImage   bool                                           // Require an image and store it as a square JPEG
	AfterUpload   func(ctx context.Context, fileID string) error // Attaches the file to its owner entity (optional)
}

// Uploader is implemented by *Handler; other modules' handlers depend on it
// to accept multipart uploads.
type Uploader interface {
	HandleFileUpload(c *gin.Context, config FileUploadConfig)
}

// HandleFileUpload is a generic reusable handler for file uploads.
// It stores the file, runs the after-upload hook, and rolls the upload back
// when the hook fails.
func (h *Handler) HandleFileUpload(c *gin.Context, config FileUploadConfig) {
	userID := auth.GetUserID(c)

	fieldName := config.FormFieldName
	if fieldName == "" {
		fieldName = "file"
	}

	fileHeader, err := c.FormFile(fieldName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fieldName + " is required"})
		return
	}

	f, err := h.fileService.Upload(c.Request.Context(), file.UploadInput{
		FileHeader:   fileHeader,
		UserID:       userID,
		MaxSizeBytes: config.MaxSizeBytes,
		AllowedTypes: config.AllowedTypes,
		ResizeImage:  config.ResizeImage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if config.AfterUpload != nil {
		if err := config.AfterUpload(c.Request.Context(), f.ID); err != nil {
			_ = h.fileService.Delete(c.Request.Context(), f.ID)
			response.Error(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, FileUploadResponse{
		Message:      "file uploaded successfully",
		FileID:       f.ID,
		URL:          file.FileURL(f.ID),
		ThumbnailURL: thumbnailURL(f),
	})
}
