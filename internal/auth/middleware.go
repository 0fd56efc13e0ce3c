package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Authenticate validates the JWT from Authorization: Bearer <token> and stores
// its claims on the context. On failure it aborts with 401 and returns false.
// Event-stream requests may pass the token as an access_token query parameter
// instead, since EventSource cannot set headers.
func Authenticate(c *gin.Context, jwtManager *JWTManager) bool {
	tokenStr, ok := bearerToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing or malformed Authorization header",
		})
		return false
	}

	claims, err := jwtManager.ParseAndValidate(tokenStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return false
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUserRole, claims.Role)
	return true
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := c.Query("access_token"); q != "" && c.GetHeader("Accept") == "text/event-stream" {
			return q, true
		}
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
