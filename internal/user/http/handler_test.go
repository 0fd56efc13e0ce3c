package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/user"
)

const (
	activeID   = "0b8f1a52-3c2e-4f55-9a4e-7d1c2b3a4f01"
	inactiveID = "0b8f1a52-3c2e-4f55-9a4e-7d1c2b3a4f02"
)

type fakeService struct {
	user.Service
	users map[string]*user.User
}

func newFakeService() *fakeService {
	name := "Mia"
	return &fakeService{users: map[string]*user.User{
		activeID:   {ID: activeID, Email: "mia@example.com", DisplayName: &name, Role: user.RoleMentor, IsActive: true},
		inactiveID: {ID: inactiveID, Email: "gone@example.com", Role: user.RoleLearner, IsActive: false},
	}}
}

func (f *fakeService) Login(_ context.Context, email, password string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email && password == "correct-horse" {
			if !u.IsActive {
				return nil, user.ErrInactiveUser
			}
			return u, nil
		}
	}
	return nil, user.ErrInvalidCredentials
}

func (f *fakeService) Register(_ context.Context, email, password, displayName string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return nil, user.ErrEmailAlreadyUsed
		}
	}
	return &user.User{ID: "new", Email: email, DisplayName: &displayName, Role: user.RoleLearner, IsActive: true, CreatedAt: time.Now()}, nil
}

func (f *fakeService) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func newTestRouter(t *testing.T, svc user.Service, viewerID, viewerRole string) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	fakeAuth := func(c *gin.Context) {
		c.Set("userID", viewerID)
		auth.SetUserRole(c, viewerRole)
		c.Next()
	}
	pass := func(c *gin.Context) { c.Next() }

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, jwtManager, nil, nil, zap.NewNop()), fakeAuth, pass)
	return r, jwtManager
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	r, jwtManager := newTestRouter(t, newFakeService(), "", "")

	w := doJSON(r, http.MethodPost, "/v1/auth/login", LoginRequest{Email: "mia@example.com", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := jwtManager.ParseAndValidate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, activeID, claims.UserID)
	assert.Equal(t, auth.RoleMentor, claims.Role)

	// Wrong password and inactive account look the same.
	wrong := doJSON(r, http.MethodPost, "/v1/auth/login", LoginRequest{Email: "mia@example.com", Password: "nope"})
	inactive := doJSON(r, http.MethodPost, "/v1/auth/login", LoginRequest{Email: "gone@example.com", Password: "correct-horse"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, inactive.Code)
	assert.JSONEq(t, wrong.Body.String(), inactive.Body.String())

	w = doJSON(r, http.MethodPost, "/v1/auth/login", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister(t *testing.T) {
	r, _ := newTestRouter(t, newFakeService(), "", "")

	w := doJSON(r, http.MethodPost, "/v1/auth/register", RegisterRequest{Email: "leo@example.com", Password: "long-enough", DisplayName: "Leo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "learner", resp.User.Role)

	w = doJSON(r, http.MethodPost, "/v1/auth/register", RegisterRequest{Email: "mia@example.com", Password: "long-enough", DisplayName: "Mia"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/auth/register", RegisterRequest{Email: "x@example.com", Password: "short", DisplayName: "X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserVisibility(t *testing.T) {
	svc := newFakeService()

	t.Run("other users get the public profile", func(t *testing.T) {
		r, _ := newTestRouter(t, svc, "someone-else", auth.RoleLearner)
		w := doJSON(r, http.MethodGet, "/v1/users/"+activeID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotContains(t, body, "email")
		assert.Equal(t, "mentor", body["role"])
	})

	t.Run("inactive users are hidden from others", func(t *testing.T) {
		r, _ := newTestRouter(t, svc, "someone-else", auth.RoleLearner)
		assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/v1/users/"+inactiveID, nil).Code)
	})

	t.Run("admins see the full record", func(t *testing.T) {
		r, _ := newTestRouter(t, svc, "admin-1", auth.RoleAdmin)
		w := doJSON(r, http.MethodGet, "/v1/users/"+inactiveID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "gone@example.com", resp.Email)
		assert.False(t, resp.IsActive)
	})
}
