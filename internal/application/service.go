package application

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/mail"
)

type SubmitRequest struct {
	Motivation      string
	Expertise       string
	YearsExperience int
	ProfileURL      string
}

func (r SubmitRequest) normalize() (SubmitRequest, error) {
	r.Motivation = strings.TrimSpace(r.Motivation)
	r.Expertise = strings.TrimSpace(r.Expertise)
	r.ProfileURL = strings.TrimSpace(r.ProfileURL)

	if r.Motivation == "" {
		return r, ErrMotivationEmpty
	}
	if r.Expertise == "" {
		return r, ErrExpertiseEmpty
	}
	if r.YearsExperience < 0 || r.YearsExperience > 80 {
		return r, ErrInvalidExperience
	}
	if r.ProfileURL != "" {
		u, err := url.Parse(r.ProfileURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return r, ErrInvalidProfileURL
		}
	}
	return r, nil
}

type Service interface {
	Submit(ctx context.Context, actor auth.Actor, req SubmitRequest) (*Application, error)
	GetByID(ctx context.Context, actor auth.Actor, id string) (*Application, error)
	List(ctx context.Context, actor auth.Actor, filter Filter) ([]*Application, int, error)
	Resubmit(ctx context.Context, actor auth.Actor, id string, req SubmitRequest) (*Application, error)

	RequestInfo(ctx context.Context, actor auth.Actor, id, note string) (*Application, error)
	Approve(ctx context.Context, actor auth.Actor, id, note string) (*Application, error)
	Reject(ctx context.Context, actor auth.Actor, id, note string) (*Application, error)
}

// Notifier sends templated emails. It is satisfied by *mail.Mailer.
type Notifier interface {
	Send(ctx context.Context, to []mail.Address, name string, data any) error
}

type service struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
}

func NewService(repo Repository, notifier Notifier, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *service) Submit(ctx context.Context, actor auth.Actor, req SubmitRequest) (*Application, error) {
	if actor.Role != auth.RoleLearner {
		return nil, ErrCannotApply
	}
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	a := &Application{
		ApplicantID:     actor.ID,
		Motivation:      req.Motivation,
		Expertise:       req.Expertise,
		YearsExperience: req.YearsExperience,
		ProfileURL:      req.ProfileURL,
		Status:          StatusSubmitted,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("mentor application submitted",
		zap.String("application_id", a.ID),
		zap.String("applicant_id", a.ApplicantID),
	)
	return s.repo.GetByID(ctx, a.ID)
}

func (s *service) GetByID(ctx context.Context, actor auth.Actor, id string) (*Application, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && a.ApplicantID != actor.ID {
		return nil, ErrPermissionDenied
	}
	return a, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, filter Filter) ([]*Application, int, error) {
	if !actor.IsAdmin() {
		filter.ApplicantID = actor.ID
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Resubmit(ctx context.Context, actor auth.Actor, id string, req SubmitRequest) (*Application, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ApplicantID != actor.ID {
		return nil, ErrPermissionDenied
	}
	if !CanTransition(a.Status, StatusSubmitted) {
		return nil, ErrInvalidTransition
	}
	req, err = req.normalize()
	if err != nil {
		return nil, err
	}

	a.Motivation = req.Motivation
	a.Expertise = req.Expertise
	a.YearsExperience = req.YearsExperience
	a.ProfileURL = req.ProfileURL
	if err := s.repo.Resubmit(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) RequestInfo(ctx context.Context, actor auth.Actor, id, note string) (*Application, error) {
	if strings.TrimSpace(note) == "" {
		return nil, ErrNoteRequired
	}
	return s.review(ctx, actor, id, StatusWaitingInfo, note)
}

func (s *service) Approve(ctx context.Context, actor auth.Actor, id, note string) (*Application, error) {
	return s.review(ctx, actor, id, StatusApproved, note)
}

func (s *service) Reject(ctx context.Context, actor auth.Actor, id, note string) (*Application, error) {
	return s.review(ctx, actor, id, StatusRejected, note)
}

func (s *service) review(ctx context.Context, actor auth.Actor, id string, to Status, note string) (*Application, error) {
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, to) {
		return nil, ErrInvalidTransition
	}

	note = strings.TrimSpace(note)
	if err := s.repo.Review(ctx, id, a.Status, to, actor.ID, note); err != nil {
		return nil, err
	}
	s.logger.Info("mentor application reviewed",
		zap.String("application_id", id),
		zap.String("reviewer_id", actor.ID),
		zap.String("from", string(a.Status)),
		zap.String("to", string(to)),
	)

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, updated)
	return updated, nil
}

// notify tells the applicant about a decision. Failures are logged only.
func (s *service) notify(ctx context.Context, a *Application) {
	err := s.notifier.Send(ctx,
		[]mail.Address{{Name: a.ApplicantName, Email: a.ApplicantEmail}},
		mail.TemplateApplicationStatus,
		mail.ApplicationStatus{Name: a.ApplicantName, Status: string(a.Status), Note: a.ReviewerNote},
	)
	if err != nil {
		s.logger.Warn("failed to send application status email",
			zap.String("application_id", a.ID),
			zap.Error(err),
		)
	}
}
