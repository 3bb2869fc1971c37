package authorization

import (
	"net/http"
	"strings"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
)

// Guard wraps the JWT middleware with authorization helpers other modules
// can attach to their route groups.
type Guard struct {
	jwt *jwt.GinJWTMiddleware
}

// Guard returns the module's reusable guard instance.
func (m *Module) Guard() *Guard {
	if m == nil || m.jwtMiddleware == nil {
		return nil
	}
	return &Guard{jwt: m.jwtMiddleware}
}

// RequireAuthenticated ensures the request carries a valid JWT.
func (g *Guard) RequireAuthenticated() gin.HandlerFunc {
	if g == nil || g.jwt == nil {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		}
	}
	return g.jwt.MiddlewareFunc()
}

// RequireRole restricts the request to accounts holding the given role.
func (g *Guard) RequireRole(role string) gin.HandlerFunc {
	expected := strings.ToLower(strings.TrimSpace(role))
	return func(c *gin.Context) {
		claims := jwt.ExtractClaims(c)
		if len(claims) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		current, _ := claims[roleClaimKey].(string)
		if expected != "" && strings.ToLower(strings.TrimSpace(current)) != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": role + " role required"})
			return
		}
		c.Next()
	}
}
