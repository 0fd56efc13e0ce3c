package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	fileHttp "github.com/nekogravitycat/mentorship-backend/internal/file/http"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/response"
	"github.com/nekogravitycat/mentorship-backend/internal/user"
)

const maxAvatarBytes = 5 << 20

// FileRemover deletes a stored file; used to drop a replaced avatar.
type FileRemover interface {
	Delete(ctx context.Context, id string) error
}

type UserHandler struct {
	userService user.Service
	jwtManager  *auth.JWTManager
	uploader    fileHttp.Uploader
	files       FileRemover
	logger      *zap.Logger
}

func NewHandler(
	userService user.Service,
	jwtManager *auth.JWTManager,
	uploader fileHttp.Uploader,
	files FileRemover,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		userService: userService,
		jwtManager:  jwtManager,
		uploader:    uploader,
		files:       files,
		logger:      logger,
	}
}

// Register creates a learner account.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	u, err := h.userService.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, MeResponse{User: NewUserResponse(u)})
}

// Login authenticates a user using email and password.
// On success, it returns a JWT access token and the user profile.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	u, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Do not reveal whether the account exists or is inactive.
		if apperror.StatusOf(err) == http.StatusUnauthorized {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		response.Error(c, err)
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		User:        NewUserResponse(u),
	})
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.userService.GetByID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
}

// UpdateMe changes the authenticated user's display name and bio.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var body UpdateMeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	u, err := h.userService.UpdateProfile(c.Request.Context(), auth.GetUserID(c), user.ProfileUpdate{
		DisplayName: body.DisplayName,
		Bio:         body.Bio,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
}

// UploadAvatar stores a square avatar and deletes the one it replaces.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID := auth.GetUserID(c)

	h.uploader.HandleFileUpload(c, fileHttp.FileUploadConfig{
		FormFieldName: "avatar",
		MaxSizeBytes:  maxAvatarBytes,
		AllowedTypes:  []string{"image/jpeg", "image/png"},
		ResizeImage:   true,
		AfterUpload: func(ctx context.Context, fileID string) error {
			previous, err := h.userService.SetAvatar(ctx, userID, fileID)
			if err != nil {
				return err
			}
			if previous != nil {
				if err := h.files.Delete(ctx, *previous); err != nil {
					h.logger.Warn("failed to delete replaced avatar", zap.String("file_id", *previous), zap.Error(err))
				}
			}
			return nil
		},
	})
}

// List returns users for administrators.
func (h *UserHandler) List(c *gin.Context) {
	var req ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	users, total, err := h.userService.List(c.Request.Context(), user.Filter{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        user.Role(req.Role),
		IsActive:    req.IsActive,
		Page:        req.Page,
		PageSize:    req.PageSize,
		SortBy:      req.SortBy,
		SortOrder:   req.Order(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.MapPage(users, NewUserResponse, req.Page, req.PageSize, total))
}

// Get returns a user's public profile; admins and the user see the full record.
func (h *UserHandler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	u, err := h.userService.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if auth.GetUserID(c) == u.ID || auth.GetUserRole(c) == string(user.RoleAdmin) {
		c.JSON(http.StatusOK, NewUserResponse(u))
		return
	}
	if !u.IsActive {
		response.Error(c, user.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, NewPublicUserResponse(u))
}

// Update applies an administrator's changes to a user.
func (h *UserHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := user.AdminUpdate{
		DisplayName: body.DisplayName,
		IsActive:    body.IsActive,
	}
	if body.Role != nil {
		role := user.Role(*body.Role)
		req.Role = &role
	}

	u, err := h.userService.AdminUpdate(c.Request.Context(), auth.GetUserID(c), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewUserResponse(u))
}

// Delete deactivates a user.
func (h *UserHandler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), auth.GetUserID(c), req.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
