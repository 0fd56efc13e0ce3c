package resource

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/course"
)

type CreateRequest struct {
	CourseID    *string
	Title       string
	Description string
	Kind        Kind
	URL         *string
}

type UpdateRequest struct {
	CourseID    *string // empty string detaches the course
	Title       *string
	Description *string
	URL         *string
}

type Service interface {
	Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Update(ctx context.Context, actor auth.Actor, id string, req UpdateRequest) (*Resource, error)
	Delete(ctx context.Context, actor auth.Actor, id string) (fileID *string, err error)
	// AttachFile sets the uploaded document and returns the file it replaced, if any.
	AttachFile(ctx context.Context, actor auth.Actor, id, fileID string) (previous *string, err error)
}

// CourseLookup is the part of course.Service resources depend on.
type CourseLookup interface {
	GetByID(ctx context.Context, actor auth.Actor, id string) (*course.Course, error)
}

type service struct {
	repo    Repository
	courses CourseLookup
}

func NewService(repo Repository, courses CourseLookup) Service {
	return &service{
		repo:    repo,
		courses: courses,
	}
}

func (s *service) Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Resource, error) {
	if !actor.IsMentor() && !actor.IsAdmin() {
		return nil, ErrOnlyMentors
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if !req.Kind.Valid() {
		return nil, ErrInvalidKind
	}

	res := &Resource{
		OwnerID:     actor.ID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Kind:        req.Kind,
	}

	link, err := checkURL(req.Kind, req.URL)
	if err != nil {
		return nil, err
	}
	res.URL = link

	if req.CourseID != nil && *req.CourseID != "" {
		if err := s.checkCourse(ctx, actor, *req.CourseID); err != nil {
			return nil, err
		}
		res.CourseID = req.CourseID
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, res.ID)
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id string, req UpdateRequest) (*Resource, error) {
	res, err := s.getManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		res.Title = title
	}
	if req.Description != nil {
		res.Description = strings.TrimSpace(*req.Description)
	}
	if req.URL != nil {
		link, err := checkURL(res.Kind, req.URL)
		if err != nil {
			return nil, err
		}
		res.URL = link
	}
	if req.CourseID != nil {
		if *req.CourseID == "" {
			res.CourseID = nil
		} else {
			if err := s.checkCourse(ctx, actor, *req.CourseID); err != nil {
				return nil, err
			}
			res.CourseID = req.CourseID
		}
	}

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id string) (*string, error) {
	res, err := s.getManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return res.FileID, nil
}

func (s *service) AttachFile(ctx context.Context, actor auth.Actor, id, fileID string) (*string, error) {
	res, err := s.getManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if res.Kind != KindDocument {
		return nil, ErrNotDocument
	}

	previous := res.FileID
	res.FileID = &fileID
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}
	return previous, nil
}

func (s *service) getManaged(ctx context.Context, actor auth.Actor, id string) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && res.OwnerID != actor.ID {
		return nil, ErrPermissionDenied
	}
	return res, nil
}

// checkCourse requires the course to exist and, for non-admins, to be taught by the actor.
func (s *service) checkCourse(ctx context.Context, actor auth.Actor, courseID string) error {
	c, err := s.courses.GetByID(ctx, actor, courseID)
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			return ErrInvalidCourse
		}
		return err
	}
	if !actor.IsAdmin() && c.MentorID != actor.ID {
		return ErrInvalidCourse
	}
	return nil
}

func checkURL(kind Kind, raw *string) (*string, error) {
	if kind == KindDocument {
		if raw != nil && strings.TrimSpace(*raw) != "" {
			return nil, ErrURLNotAllowed
		}
		return nil, nil
	}
	if raw == nil {
		return nil, ErrURLRequired
	}
	link := strings.TrimSpace(*raw)
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrURLRequired
	}
	return &link, nil
}
