package category

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.NotFound("category not found")
	ErrNameRequired = apperror.BadRequest("name is required")
	ErrNameTaken    = apperror.Conflict("category name already exists")
	ErrInUse        = apperror.Conflict("category is used by courses")
)

// Category groups courses by subject.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter defines parameters for listing categories.
type Filter struct {
	Keyword   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
