package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/auth"
)

// ValidateToken authenticates the request from its Authorization header and
// stores the resolved actor on the context. The "Bearer " prefix is optional.
// Revoked tokens and tokens of deleted users are rejected.
func ValidateToken(db *gorm.DB, tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the token from the header
		tokenString := strings.TrimSpace(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}
		if len(tokenString) > 7 && strings.EqualFold(tokenString[:7], "bearer ") {
			tokenString = strings.TrimSpace(tokenString[7:])
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		actor, err := auth.Authenticate(db.WithContext(c.Request.Context()), claims)
		switch {
		case errors.Is(err, auth.ErrTokenRevoked):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			return
		case errors.Is(err, auth.ErrUnknownUser):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		case err != nil:
			slog.ErrorContext(c.Request.Context(), "token lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		auth.SetActor(c, actor)
		c.Next()
	}
}
