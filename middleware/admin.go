package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mouss911/webnet-back/auth"
)

// RequireAdmin lets only admin actors through. It must run after ValidateToken.
func RequireAdmin(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}
	if !actor.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized. Admin access required."})
		return
	}
	c.Next()
}
