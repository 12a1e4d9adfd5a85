package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Mouss911/webnet-back/auth"
)

// SetupAuthRoutes registers registration, login and token lifecycle endpoints.
func SetupAuthRoutes(public, protected *gin.RouterGroup, d Deps) {
	public.POST("/register", auth.RegisterHandler(d.DB, d.Tokens))
	public.POST("/login", auth.LoginHandler(d.DB, d.Tokens))

	protected.GET("/logout", auth.LogoutHandler(d.DB))
	protected.GET("/refresh-token", auth.RefreshTokenHandler(d.DB, d.Tokens))
}
