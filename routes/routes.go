package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/auth"
	orderControllers "github.com/Mouss911/webnet-back/controllers/order"
	"github.com/Mouss911/webnet-back/metrics"
	"github.com/Mouss911/webnet-back/middleware"
)

// Deps is everything the route table hands to controllers.
type Deps struct {
	DB      *gorm.DB
	Tokens  *auth.TokenIssuer
	Policy  orderControllers.TransitionPolicy
	Hub     *orderControllers.Hub
	Metrics *metrics.ServerMetrics
}

// SetupRoutes is the single entry-point that wires up the public, authenticated and admin route groups.
func SetupRoutes(r *gin.Engine, d Deps) {
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	api := r.Group("/api")

	// Bearer token required
	protected := api.Group("")
	protected.Use(middleware.ValidateToken(d.DB, d.Tokens))

	// Bearer token of an admin required
	admin := protected.Group("")
	admin.Use(middleware.RequireAdmin)

	SetupAuthRoutes(api, protected, d)
	SetupUserRoutes(api, protected, d)
	SetupOrderRoutes(protected, admin, d)
	SetupAdminRoutes(admin, d)
}
