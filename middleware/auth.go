package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bookmytime/models"
	"bookmytime/utils"
)

const authContextKey = "authContext"

// JWTAuthMiddleware validates the Bearer token and stores the caller's
// identity in the request context. Token issuance belongs to the external
// auth service; this side only verifies.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, role, err := utils.ExtractIdentityFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		authRole := models.Role(role)
		if !authRole.Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown role in token"})
			return
		}

		c.Set(authContextKey, models.AuthContext{UserID: userID, Role: authRole})
		c.Next()
	}
}

// RequireRole rejects requests whose authenticated role is not in the
// allowed set. Admins pass every role gate.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, ok := GetAuthContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if auth.Role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if auth.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role for this operation"})
	}
}

// GetAuthContext retrieves the identity stored by JWTAuthMiddleware.
func GetAuthContext(c *gin.Context) (models.AuthContext, bool) {
	v, exists := c.Get(authContextKey)
	if !exists {
		return models.AuthContext{}, false
	}
	auth, ok := v.(models.AuthContext)
	return auth, ok
}
