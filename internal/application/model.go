package application

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.NotFound("application not found")
	ErrPermissionDenied  = apperror.Forbidden("permission denied")
	ErrCannotApply       = apperror.Forbidden("only learners can apply to become mentors")
	ErrOpenApplication   = apperror.Conflict("you already have an open application")
	ErrInvalidTransition = apperror.Conflict("application cannot move to the requested status")
	ErrStatusConflict    = apperror.Conflict("application status changed, reload and try again")
	ErrNoteRequired      = apperror.BadRequest("a note is required when asking for more information")
	ErrMotivationEmpty   = apperror.BadRequest("motivation is required")
	ErrExpertiseEmpty    = apperror.BadRequest("expertise is required")
	ErrInvalidExperience = apperror.BadRequest("years of experience must be between 0 and 80")
	ErrInvalidProfileURL = apperror.BadRequest("profile_url must be an http or https URL")
)

type Status string

const (
	StatusSubmitted   Status = "submitted"
	StatusWaitingInfo Status = "waiting_info"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusWaitingInfo, StatusApproved, StatusRejected},
	StatusWaitingInfo: {StatusSubmitted, StatusApproved, StatusRejected},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether the application still awaits a decision.
func (s Status) IsOpen() bool {
	return s == StatusSubmitted || s == StatusWaitingInfo
}

type Application struct {
	ID              string
	ApplicantID     string
	ApplicantName   string
	ApplicantEmail  string
	Motivation      string
	Expertise       string
	YearsExperience int
	ProfileURL      string
	ReviewerNote    string
	Status          Status
	ReviewerID      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Filter struct {
	ApplicantID string
	Status      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
