package http

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/file"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentorship-backend/internal/resource"
)

type ResourceResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	CourseID    *string   `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	URL         *string   `json:"url"`
	FileURL     *string   `json:"file_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewResponse(r *resource.Resource) ResourceResponse {
	var fileURL *string
	if r.FileID != nil {
		u := file.FileURL(*r.FileID)
		fileURL = &u
	}
	return ResourceResponse{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		OwnerName:   r.OwnerName,
		CourseID:    r.CourseID,
		Title:       r.Title,
		Description: r.Description,
		Kind:        string(r.Kind),
		URL:         r.URL,
		FileURL:     fileURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type ListResourcesRequest struct {
	request.ListParams
	CourseID string `form:"course_id" binding:"omitempty,uuid"`
	OwnerID  string `form:"owner_id" binding:"omitempty,uuid"`
	Kind     string `form:"kind" binding:"omitempty,oneof=link document video"`
	Keyword  string `form:"q"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=title kind created_at"`
}

type CreateRequest struct {
	CourseID    *string `json:"course_id" binding:"omitempty,uuid"`
	Title       string  `json:"title" binding:"required,max=200"`
	Description string  `json:"description" binding:"max=5000"`
	Kind        string  `json:"kind" binding:"required,oneof=link document video"`
	URL         *string `json:"url" binding:"omitempty,max=2048"`
}

type UpdateRequest struct {
	CourseID    *string `json:"course_id" binding:"omitempty,uuid"`
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	URL         *string `json:"url" binding:"omitempty,max=2048"`
}
