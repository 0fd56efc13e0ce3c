package session

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "session not found")
	ErrSlotNotFound      = apperror.New(http.StatusNotFound, "time slot not found")
	ErrSlotUnavailable   = apperror.New(http.StatusConflict, "time slot is no longer available")
	ErrStatusConflict    = apperror.New(http.StatusConflict, "session status changed, reload and try again")
	ErrInvalidTransition = apperror.New(http.StatusConflict, "session cannot move to the requested status")
	ErrNotStarted        = apperror.New(http.StatusConflict, "session has not started yet")
	ErrAlreadyStarted    = apperror.New(http.StatusConflict, "session has already started")
	ErrPermissionDenied  = apperror.New(http.StatusForbidden, "permission denied")
	ErrSelfBooking       = apperror.New(http.StatusBadRequest, "mentors cannot book their own slots")
	ErrAdminBooking      = apperror.New(http.StatusForbidden, "admins cannot book sessions")
	ErrDifferentMentor   = apperror.New(http.StatusBadRequest, "new slot belongs to a different mentor")
	ErrSameSlot          = apperror.New(http.StatusBadRequest, "new slot is the current slot")
	ErrCourseNotFound    = apperror.New(http.StatusBadRequest, "course not found")
	ErrInvalidTimeRange  = apperror.New(http.StatusBadRequest, "from must be before to")
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
)

// ReasonExpired is recorded on pending sessions nobody approved before they started.
const ReasonExpired = "expired"

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusCancelled, StatusRescheduled},
	StatusApproved: {StatusCompleted, StatusCancelled, StatusRescheduled},
}

// CanTransition reports whether a session may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

type Session struct {
	ID                string
	SlotID            *string
	MentorID          string
	MentorName        string
	MentorEmail       string
	LearnerID         string
	LearnerName       string
	LearnerEmail      string
	CourseID          *string
	CourseTitle       *string
	StartTime         time.Time
	EndTime           time.Time
	Topic             string
	Notes             string
	Status            Status
	RescheduledFromID *string
	CancelReason      string
	ReminderSentAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsParticipant reports whether userID is the session's mentor or learner.
func (s *Session) IsParticipant(userID string) bool {
	return s.MentorID == userID || s.LearnerID == userID
}

type Filter struct {
	MentorID      string
	LearnerID     string
	ParticipantID string // mentor or learner
	Status        string
	From          *time.Time // sessions starting at or after
	To            *time.Time // sessions starting before
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
