package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/session"
)

// SessionLister is the part of session.Service the mentor view uses.
type SessionLister interface {
	List(ctx context.Context, actor auth.Actor, filter session.Filter) ([]*session.Session, int, error)
}

type Service interface {
	Admin(ctx context.Context, actor auth.Actor) (*AdminStats, error)
	Mentor(ctx context.Context, actor auth.Actor) (*MentorStats, error)
}

type service struct {
	repo     Repository
	sessions SessionLister
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, sessions SessionLister, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

var (
	roles    = []string{auth.RoleAdmin, auth.RoleMentor, auth.RoleLearner}
	statuses = []string{
		string(session.StatusPending),
		string(session.StatusApproved),
		string(session.StatusCompleted),
		string(session.StatusCancelled),
		string(session.StatusRescheduled),
	}
)

// withZeros makes every known key present so clients can render a fixed set of buckets.
func withZeros(counts map[string]int, keys []string) map[string]int {
	out := make(map[string]int, len(keys))
	for _, k := range keys {
		out[k] = 0
	}
	for k, v := range counts {
		out[k] = v
	}
	return out
}

func (s *service) Admin(ctx context.Context, actor auth.Actor) (*AdminStats, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}

	stats := &AdminStats{GeneratedAt: s.now()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.repo.CountUsersByRole(gctx)
		stats.UsersByRole = withZeros(counts, roles)
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.CountSessionsByStatus(gctx, "")
		stats.SessionsByStatus = withZeros(counts, statuses)
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountOpenApplications(gctx)
		stats.OpenApplications = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountCourses(gctx)
		stats.Courses = n
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to build admin dashboard", zap.Error(err))
		return nil, err
	}
	return stats, nil
}

func (s *service) Mentor(ctx context.Context, actor auth.Actor) (*MentorStats, error) {
	if !actor.IsMentor() {
		return nil, ErrMentorsOnly
	}

	now := s.now()
	until := now.Add(UpcomingWindow)
	stats := &MentorStats{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.repo.CountSessionsByStatus(gctx, actor.ID)
		stats.SessionsByStatus = withZeros(counts, statuses)
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountOpenSlots(gctx, actor.ID, now)
		stats.OpenSlots = n
		return err
	})
	g.Go(func() error {
		list, _, err := s.sessions.List(gctx, actor, session.Filter{
			MentorID:  actor.ID,
			Status:    string(session.StatusApproved),
			From:      &now,
			To:        &until,
			PageSize:  upcomingLimit,
			SortBy:    "start_time",
			SortOrder: "ASC",
		})
		stats.Upcoming = list
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to build mentor dashboard", zap.String("mentor_id", actor.ID), zap.Error(err))
		return nil, err
	}
	return stats, nil
}
