package user

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
)

type fakeRepo struct {
	mu       sync.Mutex
	users    map[string]*User
	seq      int
	loginErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]*User{}}
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	u.ID = fmt.Sprintf("user-%d", r.seq)
	u.CreatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	if r.loginErr != nil {
		return r.loginErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].LastLoginAt = &t
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ Filter) ([]*User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = false
	return nil
}

func newTestService(repo Repository) Service {
	return NewService(repo, auth.NewBcryptPasswordHasherWithCost(4), zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)

	t.Run("Register normalizes email and defaults to learner", func(t *testing.T) {
		u, err := svc.Register(ctx, "  Alice@Example.COM ", "supersecret", " Alice ")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", u.Email)
		assert.Equal(t, RoleLearner, u.Role)
		assert.True(t, u.IsActive)
		require.NotNil(t, u.DisplayName)
		assert.Equal(t, "Alice", *u.DisplayName)
		assert.NotEqual(t, "supersecret", u.PasswordHash)
	})

	t.Run("Duplicate email is rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice@example.com", "anotherpass", "Other")
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})

	t.Run("Short password is rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob@example.com", "short", "Bob")
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("Blank email is rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "   ", "supersecret", "Nobody")
		assert.ErrorIs(t, err, ErrEmailRequired)
	})

	t.Run("Login succeeds and records last login", func(t *testing.T) {
		u, err := svc.Login(ctx, "ALICE@example.com", "supersecret")
		require.NoError(t, err)
		assert.NotNil(t, u.LastLoginAt)
	})

	t.Run("Login with wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice@example.com", "wrongpassword")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Login with unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "ghost@example.com", "supersecret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Login survives a failed last-login update", func(t *testing.T) {
		repo.loginErr = errors.New("db down")
		defer func() { repo.loginErr = nil }()

		u, err := svc.Login(ctx, "alice@example.com", "supersecret")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", u.Email)
	})
}

func TestLoginInactiveUser(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)

	u, err := svc.Register(ctx, "carol@example.com", "supersecret", "Carol")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, u.ID))

	_, err = svc.Login(ctx, "carol@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestAdminUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)

	admin, err := svc.Register(ctx, "admin@example.com", "supersecret", "Admin")
	require.NoError(t, err)
	admin.Role = RoleAdmin
	require.NoError(t, repo.Update(ctx, admin))

	learner, err := svc.Register(ctx, "learner@example.com", "supersecret", "Learner")
	require.NoError(t, err)

	mentor := RoleMentor
	bogus := Role("superuser")
	learnerRole := RoleLearner
	inactive := false

	t.Run("Promote learner to mentor", func(t *testing.T) {
		u, err := svc.AdminUpdate(ctx, admin.ID, learner.ID, AdminUpdate{Role: &mentor})
		require.NoError(t, err)
		assert.Equal(t, RoleMentor, u.Role)

		stored, err := repo.GetByID(ctx, learner.ID)
		require.NoError(t, err)
		assert.Equal(t, RoleMentor, stored.Role)
	})

	t.Run("Unknown role is rejected", func(t *testing.T) {
		_, err := svc.AdminUpdate(ctx, admin.ID, learner.ID, AdminUpdate{Role: &bogus})
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("Admin cannot demote themselves", func(t *testing.T) {
		_, err := svc.AdminUpdate(ctx, admin.ID, admin.ID, AdminUpdate{Role: &learnerRole})
		assert.ErrorIs(t, err, ErrSelfModification)
	})

	t.Run("Admin cannot deactivate themselves", func(t *testing.T) {
		_, err := svc.AdminUpdate(ctx, admin.ID, admin.ID, AdminUpdate{IsActive: &inactive})
		assert.ErrorIs(t, err, ErrSelfModification)

		assert.ErrorIs(t, svc.Deactivate(ctx, admin.ID, admin.ID), ErrSelfModification)
	})

	t.Run("Deactivate another user", func(t *testing.T) {
		require.NoError(t, svc.Deactivate(ctx, admin.ID, learner.ID))
		stored, err := repo.GetByID(ctx, learner.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
	})

	t.Run("Update missing user", func(t *testing.T) {
		_, err := svc.AdminUpdate(ctx, admin.ID, "missing", AdminUpdate{Role: &mentor})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateProfileAndAvatar(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)

	u, err := svc.Register(ctx, "dave@example.com", "supersecret", "Dave")
	require.NoError(t, err)

	t.Run("Blank display name clears it", func(t *testing.T) {
		blank := "   "
		bio := "  Go mentor  "
		updated, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{DisplayName: &blank, Bio: &bio})
		require.NoError(t, err)
		assert.Nil(t, updated.DisplayName)
		assert.Equal(t, "Go mentor", updated.Bio)
		assert.Equal(t, "dave@example.com", updated.Name())
	})

	t.Run("SetAvatar returns the replaced file", func(t *testing.T) {
		prev, err := svc.SetAvatar(ctx, u.ID, "file-1")
		require.NoError(t, err)
		assert.Nil(t, prev)

		prev, err = svc.SetAvatar(ctx, u.ID, "file-2")
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, "file-1", *prev)

		stored, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.AvatarFileID)
		assert.Equal(t, "file-2", *stored.AvatarFileID)
	})
}
