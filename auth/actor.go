package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mouss911/webnet-back/models"
)

const actorKey = "auth.actor"

// Actor is the authenticated caller resolved from a session token.
type Actor struct {
	UserID    string
	Email     string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

func ActorFromClaims(claims *Claims) Actor {
	a := Actor{
		UserID:  claims.UserID,
		Email:   claims.Email,
		Role:    claims.Role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		a.ExpiresAt = claims.ExpiresAt.Time
	}
	return a
}

func SetActor(c *gin.Context, a Actor) {
	c.Set(actorKey, a)
}

// ActorFrom returns the actor stored by the token middleware.
func ActorFrom(c *gin.Context) (Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return Actor{}, false
	}
	a, ok := v.(Actor)
	return a, ok
}

// CurrentActor is ActorFrom for handlers behind the token middleware. When no
// actor is present it answers 401 and returns false.
func CurrentActor(c *gin.Context) (Actor, bool) {
	a, ok := ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
	}
	return a, ok
}
