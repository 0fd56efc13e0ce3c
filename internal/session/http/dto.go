package http

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentorship-backend/internal/session"
	userHttp "github.com/nekogravitycat/mentorship-backend/internal/user/http"
)

// ListSessionsRequest defines query parameters for listing sessions.
type ListSessionsRequest struct {
	request.ListParams
	MentorID  string     `form:"mentor_id" binding:"omitempty,uuid"`
	LearnerID string     `form:"learner_id" binding:"omitempty,uuid"`
	Status    string     `form:"status" binding:"omitempty,oneof=pending approved completed cancelled rescheduled"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy    string     `form:"sort_by" binding:"omitempty,oneof=start_time created_at status"`
}

type CourseTag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type SessionResponse struct {
	ID                string           `json:"id"`
	SlotID            *string          `json:"slot_id"`
	Mentor            userHttp.UserTag `json:"mentor"`
	Learner           userHttp.UserTag `json:"learner"`
	Course            *CourseTag       `json:"course,omitempty"`
	StartTime         time.Time        `json:"start_time"`
	EndTime           time.Time        `json:"end_time"`
	Topic             string           `json:"topic"`
	Notes             string           `json:"notes"`
	Status            string           `json:"status"`
	RescheduledFromID *string          `json:"rescheduled_from_id,omitempty"`
	CancelReason      string           `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func NewSessionResponse(s *session.Session) SessionResponse {
	resp := SessionResponse{
		ID:                s.ID,
		SlotID:            s.SlotID,
		Mentor:            userHttp.UserTag{ID: s.MentorID, Name: s.MentorName},
		Learner:           userHttp.UserTag{ID: s.LearnerID, Name: s.LearnerName},
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		Topic:             s.Topic,
		Notes:             s.Notes,
		Status:            string(s.Status),
		RescheduledFromID: s.RescheduledFromID,
		CancelReason:      s.CancelReason,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	if s.CourseID != nil {
		tag := &CourseTag{ID: *s.CourseID}
		if s.CourseTitle != nil {
			tag.Title = *s.CourseTitle
		}
		resp.Course = tag
	}
	return resp
}

type BookSessionBody struct {
	SlotID   string  `json:"slot_id" binding:"required,uuid"`
	CourseID *string `json:"course_id" binding:"omitempty,uuid"`
	Topic    string  `json:"topic" binding:"max=200"`
	Notes    string  `json:"notes" binding:"max=2000"`
}

type ReasonBody struct {
	Reason string `json:"reason" binding:"max=500"`
}

type RescheduleBody struct {
	SlotID string `json:"slot_id" binding:"required,uuid"`
}
