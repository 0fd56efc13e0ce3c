package resource

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.NotFound("resource not found")
	ErrEmptyTitle       = apperror.BadRequest("title cannot be empty")
	ErrInvalidKind      = apperror.BadRequest("kind must be link, document or video")
	ErrURLRequired      = apperror.BadRequest("a valid http(s) url is required for links and videos")
	ErrURLNotAllowed    = apperror.BadRequest("documents are uploaded, not linked")
	ErrNotDocument      = apperror.BadRequest("only document resources accept file uploads")
	ErrInvalidCourse    = apperror.BadRequest("course does not exist or is not yours")
	ErrPermissionDenied = apperror.Forbidden("permission denied")
	ErrOnlyMentors      = apperror.Forbidden("only mentors and admins can create resources")
)

type Kind string

const (
	KindLink     Kind = "link"
	KindDocument Kind = "document"
	KindVideo    Kind = "video"
)

func (k Kind) Valid() bool {
	switch k {
	case KindLink, KindDocument, KindVideo:
		return true
	}
	return false
}

// Resource is learning material shared by a mentor, optionally tied to a course.
type Resource struct {
	ID          string
	OwnerID     string
	OwnerName   string
	CourseID    *string
	Title       string
	Description string
	Kind        Kind
	URL         *string // links and videos
	FileID      *string // uploaded documents
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	CourseID  string
	OwnerID   string
	Kind      Kind
	Keyword   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
