package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return getString(c, ctxUserID)
}

// GetUserRole returns the role embedded in the access token or empty string.
// Handlers that need an up-to-date role should reload the user instead.
func GetUserRole(c *gin.Context) string {
	return getString(c, ctxUserRole)
}

func getString(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Role names carried in tokens and stored on users.
const (
	RoleAdmin   = "admin"
	RoleMentor  = "mentor"
	RoleLearner = "learner"
)

// Actor identifies the caller of a service operation.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsMentor() bool { return a.Role == RoleMentor }

// CurrentActor returns the authenticated caller.
func CurrentActor(c *gin.Context) Actor {
	return Actor{ID: GetUserID(c), Role: GetUserRole(c)}
}

// SetUserRole replaces the token role with the role currently stored for the user.
func SetUserRole(c *gin.Context, role string) {
	c.Set(ctxUserRole, role)
}
