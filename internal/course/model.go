package course

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.NotFound("course not found")
	ErrTitleRequired     = apperror.BadRequest("title is required")
	ErrInvalidLevel      = apperror.BadRequest("level must be beginner, intermediate or advanced")
	ErrCategoryNotFound  = apperror.BadRequest("category does not exist")
	ErrMentorRequired    = apperror.BadRequest("mentor_id must reference an active mentor")
	ErrPermissionDenied  = apperror.Forbidden("permission denied")
	ErrOnlyMentorsCreate = apperror.Forbidden("only mentors and admins can create courses")
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Course is a mentor's offering within a category.
type Course struct {
	ID           string
	MentorID     string
	MentorName   string
	CategoryID   string
	CategoryName string
	Title        string
	Description  string
	Level        Level
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Filter struct {
	CategoryID string
	MentorID   string
	Level      Level
	Keyword    string
	Published  *bool
	// VisibleTo restricts results to published courses plus courses owned by this user.
	VisibleTo string

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
