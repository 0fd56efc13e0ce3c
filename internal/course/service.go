package course

import (
	"context"
	"errors"
	"strings"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/category"
	"github.com/nekogravitycat/mentorship-backend/internal/user"
)

type CreateRequest struct {
	MentorID    string // Required when an admin creates on behalf of a mentor.
	CategoryID  string
	Title       string
	Description string
	Level       Level
	IsPublished bool
}

type UpdateRequest struct {
	CategoryID  *string
	Title       *string
	Description *string
	Level       *Level
	IsPublished *bool
}

type Service interface {
	Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Course, error)
	GetByID(ctx context.Context, actor auth.Actor, id string) (*Course, error)
	List(ctx context.Context, actor auth.Actor, filter Filter) ([]*Course, int, error)
	Update(ctx context.Context, actor auth.Actor, id string, req UpdateRequest) (*Course, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
}

// UserLookup is the part of user.Service courses depend on.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// CategoryLookup is the part of category.Service courses depend on.
type CategoryLookup interface {
	GetByID(ctx context.Context, id string) (*category.Category, error)
}

type service struct {
	repo       Repository
	users      UserLookup
	categories CategoryLookup
}

func NewService(repo Repository, users UserLookup, categories CategoryLookup) Service {
	return &service{
		repo:       repo,
		users:      users,
		categories: categories,
	}
}

func (s *service) Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Course, error) {
	mentorID := actor.ID
	switch {
	case actor.IsMentor():
		if req.MentorID != "" && req.MentorID != actor.ID {
			return nil, ErrPermissionDenied
		}
	case actor.IsAdmin():
		if req.MentorID == "" {
			return nil, ErrMentorRequired
		}
		mentor, err := s.users.GetByID(ctx, req.MentorID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return nil, ErrMentorRequired
			}
			return nil, err
		}
		if mentor.Role != user.RoleMentor || !mentor.IsActive {
			return nil, ErrMentorRequired
		}
		mentorID = mentor.ID
	default:
		return nil, ErrOnlyMentorsCreate
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if !req.Level.Valid() {
		return nil, ErrInvalidLevel
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	c := &Course{
		MentorID:    mentorID,
		CategoryID:  req.CategoryID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Level:       req.Level,
		IsPublished: req.IsPublished,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	// Reload for the joined mentor and category names.
	return s.repo.GetByID(ctx, c.ID)
}

func (s *service) checkCategory(ctx context.Context, id string) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

// GetByID hides unpublished courses from everyone but their mentor and admins.
func (s *service) GetByID(ctx context.Context, actor auth.Actor, id string) (*Course, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsPublished && !canManage(actor, c) {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, filter Filter) ([]*Course, int, error) {
	if !actor.IsAdmin() {
		filter.VisibleTo = actor.ID
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id string, req UpdateRequest) (*Course, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, c) {
		if !c.IsPublished {
			return nil, ErrNotFound
		}
		return nil, ErrPermissionDenied
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		c.Title = title
	}
	if req.Description != nil {
		c.Description = strings.TrimSpace(*req.Description)
	}
	if req.Level != nil {
		if !req.Level.Valid() {
			return nil, ErrInvalidLevel
		}
		c.Level = *req.Level
	}
	if req.IsPublished != nil {
		c.IsPublished = *req.IsPublished
	}
	if req.CategoryID != nil && *req.CategoryID != c.CategoryID {
		if err := s.checkCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		c.CategoryID = *req.CategoryID
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, c.ID)
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, c) {
		return ErrPermissionDenied
	}
	return s.repo.Delete(ctx, id)
}

func canManage(actor auth.Actor, c *Course) bool {
	return actor.IsAdmin() || c.MentorID == actor.ID
}
