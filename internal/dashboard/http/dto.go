package http

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/dashboard"
	sessionHttp "github.com/nekogravitycat/mentorship-backend/internal/session/http"
)

type AdminStatsResponse struct {
	UsersByRole      map[string]int `json:"users_by_role"`
	SessionsByStatus map[string]int `json:"sessions_by_status"`
	OpenApplications int            `json:"open_applications"`
	Courses          int            `json:"courses"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

func NewAdminStatsResponse(s *dashboard.AdminStats) AdminStatsResponse {
	return AdminStatsResponse{
		UsersByRole:      s.UsersByRole,
		SessionsByStatus: s.SessionsByStatus,
		OpenApplications: s.OpenApplications,
		Courses:          s.Courses,
		GeneratedAt:      s.GeneratedAt,
	}
}

type MentorStatsResponse struct {
	SessionsByStatus map[string]int                `json:"sessions_by_status"`
	Upcoming         []sessionHttp.SessionResponse `json:"upcoming"`
	OpenSlots        int                           `json:"open_slots"`
	GeneratedAt      time.Time                     `json:"generated_at"`
}

func NewMentorStatsResponse(s *dashboard.MentorStats) MentorStatsResponse {
	upcoming := make([]sessionHttp.SessionResponse, 0, len(s.Upcoming))
	for _, sess := range s.Upcoming {
		upcoming = append(upcoming, sessionHttp.NewSessionResponse(sess))
	}
	return MentorStatsResponse{
		SessionsByStatus: s.SessionsByStatus,
		Upcoming:         upcoming,
		OpenSlots:        s.OpenSlots,
		GeneratedAt:      s.GeneratedAt,
	}
}
