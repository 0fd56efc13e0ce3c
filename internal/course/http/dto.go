package http

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/course"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
)

type CourseResponse struct {
	ID           string    `json:"id"`
	MentorID     string    `json:"mentor_id"`
	MentorName   string    `json:"mentor_name"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Level        string    `json:"level"`
	IsPublished  bool      `json:"is_published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewCourseResponse(c *course.Course) CourseResponse {
	return CourseResponse{
		ID:           c.ID,
		MentorID:     c.MentorID,
		MentorName:   c.MentorName,
		CategoryID:   c.CategoryID,
		CategoryName: c.CategoryName,
		Title:        c.Title,
		Description:  c.Description,
		Level:        string(c.Level),
		IsPublished:  c.IsPublished,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

type ListCoursesRequest struct {
	request.ListParams
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	MentorID   string `form:"mentor_id" binding:"omitempty,uuid"`
	Level      string `form:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Keyword    string `form:"q"`
	Published  *bool  `form:"published"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=title level created_at updated_at"`
}

type CreateCourseBody struct {
	MentorID    string `json:"mentor_id" binding:"omitempty,uuid"`
	CategoryID  string `json:"category_id" binding:"required,uuid"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=5000"`
	Level       string `json:"level" binding:"required,oneof=beginner intermediate advanced"`
	IsPublished bool   `json:"is_published"`
}

type UpdateCourseBody struct {
	CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Level       *string `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	IsPublished *bool   `json:"is_published"`
}
