package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
)

const minPasswordLength = 8

// ProfileUpdate holds the fields a user may change on their own account.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
}

// AdminUpdate holds the fields an administrator may change on any account.
type AdminUpdate struct {
	DisplayName *string
	Role        *Role
	IsActive    *bool
}

// Service defines business logic related to users.
type Service interface {
	Register(ctx context.Context, email, password, displayName string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, filter Filter) ([]*User, int, error)
	UpdateProfile(ctx context.Context, id string, req ProfileUpdate) (*User, error)
	AdminUpdate(ctx context.Context, actorID, id string, req AdminUpdate) (*User, error)
	Deactivate(ctx context.Context, actorID, id string) error
	// SetAvatar stores fileID as the avatar and returns the file it replaced, if any.
	SetAvatar(ctx context.Context, id, fileID string) (previous *string, err error)
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	logger *zap.Logger
}

// NewService creates a new user Service.
func NewService(repo Repository, hasher auth.PasswordHasher, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

func (s *service) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" {
		return nil, ErrEmailRequired
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	_, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err == nil {
		return nil, ErrEmailAlreadyUsed
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		Email:        cleanEmail,
		PasswordHash: hash,
		DisplayName:  trimmedPtr(displayName),
		Role:         RoleLearner,
		IsActive:     true,
	}

	// The unique index still guards against a concurrent registration.
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	// Best effort: a failed timestamp update must not fail the login.
	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLoginAt = &now
	}

	return u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*User, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) UpdateProfile(ctx context.Context, id string, req ProfileUpdate) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		u.DisplayName = trimmedPtr(*req.DisplayName)
	}
	if req.Bio != nil {
		u.Bio = strings.TrimSpace(*req.Bio)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) AdminUpdate(ctx context.Context, actorID, id string, req AdminUpdate) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, ErrInvalidRole
		}
		if actorID == id && *req.Role != RoleAdmin {
			return nil, ErrSelfModification
		}
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		if actorID == id && !*req.IsActive {
			return nil, ErrSelfModification
		}
		u.IsActive = *req.IsActive
	}
	if req.DisplayName != nil {
		u.DisplayName = trimmedPtr(*req.DisplayName)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Deactivate(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfModification
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) SetAvatar(ctx context.Context, id, fileID string) (*string, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := u.AvatarFileID
	u.AvatarFileID = &fileID

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return previous, nil
}

// normalizeEmail trims spaces and lowercases the email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
