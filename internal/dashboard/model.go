// Package dashboard aggregates reporting figures for admins and mentors.
package dashboard

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/mentorship-backend/internal/session"
)

var (
	ErrAdminOnly   = apperror.Forbidden("dashboard is only available to admins")
	ErrMentorsOnly = apperror.Forbidden("dashboard is only available to mentors")
)

// UpcomingWindow is how far ahead the mentor dashboard lists approved sessions.
const UpcomingWindow = 7 * 24 * time.Hour

const upcomingLimit = 50

type AdminStats struct {
	UsersByRole      map[string]int
	SessionsByStatus map[string]int
	OpenApplications int
	Courses          int
	GeneratedAt      time.Time
}

type MentorStats struct {
	SessionsByStatus map[string]int
	Upcoming         []*session.Session
	OpenSlots        int
	GeneratedAt      time.Time
}
