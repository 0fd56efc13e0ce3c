package user

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.NotFound("user not found")
	ErrEmailAlreadyUsed   = apperror.Conflict("email already used")
	ErrInvalidCredentials = apperror.New(401, "invalid email or password")
	ErrInactiveUser       = apperror.New(401, "user is inactive")
	ErrEmailRequired      = apperror.BadRequest("email is required")
	ErrPasswordTooShort   = apperror.BadRequest("password must be at least 8 characters")
	ErrInvalidRole        = apperror.BadRequest("invalid role")
	ErrSelfModification   = apperror.BadRequest("admins cannot demote or deactivate themselves")
)

// Role is a user's platform-wide role.
type Role string

const (
	RoleAdmin   Role = auth.RoleAdmin
	RoleMentor  Role = auth.RoleMentor
	RoleLearner Role = auth.RoleLearner
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMentor, RoleLearner:
		return true
	}
	return false
}

// User represents an account on the platform.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  *string
	Bio          string
	AvatarFileID *string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Name returns the display name, falling back to the email address.
func (u *User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Email
}

// Filter defines filter options for listing users.
type Filter struct {
	Email       string
	DisplayName string
	Role        Role
	IsActive    *bool // nil means not filtered

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
