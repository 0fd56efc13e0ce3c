package http

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/file"
)

// FileUploadResponse is returned after a successful upload.
type FileUploadResponse struct {
	Message      string  `json:"message"`
	FileID       string  `json:"file_id"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// FileResponse describes stored file metadata.
type FileResponse struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewFileResponse(f *file.File) FileResponse {
	return FileResponse{
		ID:           f.ID,
		Filename:     f.Filename,
		ContentType:  f.ContentType,
		Size:         f.Size,
		URL:          file.FileURL(f.ID),
		ThumbnailURL: thumbnailURL(f),
		CreatedAt:    f.CreatedAt,
	}
}

func thumbnailURL(f *file.File) *string {
	if f.ThumbnailPath == nil {
		return nil
	}
	t := file.ThumbnailURL(f.ID)
	return &t
}
