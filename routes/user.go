package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/Mouss911/webnet-back/controllers/cart"
	productcontroller "github.com/Mouss911/webnet-back/controllers/product"
	userControllers "github.com/Mouss911/webnet-back/controllers/user"
)

// SetupUserRoutes registers catalog browsing (public) plus profile and cart endpoints (token required).
func SetupUserRoutes(public, protected *gin.RouterGroup, d Deps) {
	db := d.DB

	// ──────────────── Browse Products ────────────────
	public.GET("/products", productcontroller.GetProducts(db))
	public.GET("/products/:id", productcontroller.GetProductByID(db))
	public.GET("/products/category/:category", productcontroller.GetProductsByCategory(db))
	public.GET("/products/search/:query", productcontroller.SearchProductsHandler(db))

	// ──────────────── Browse Categories ────────────────
	public.GET("/categories", productcontroller.GetAllCategories(db))
	public.GET("/categories/:id", productcontroller.GetCategoryByID(db))

	// ──────────────── User Profile ────────────────
	protected.GET("/profile", userControllers.GetUser(db))
	protected.PUT("/profile/update", userControllers.UpdateUser(db))
	protected.PUT("/profile/password", userControllers.ChangePasswordHandler(db))

	// ──────────────── Shopping Cart ────────────────
	cart := protected.Group("/cart")
	{
		cart.GET("", cartControllers.ViewCartHandler(db))                       // GET /api/cart
		cart.POST("/add", cartControllers.AddItemHandler(db))                   // POST /api/cart/add
		cart.PUT("/update/:cartItem", cartControllers.UpdateItemHandler(db))    // PUT /api/cart/update/:cartItem
		cart.DELETE("/remove/:cartItem", cartControllers.RemoveItemHandler(db)) // DELETE /api/cart/remove/:cartItem
		cart.DELETE("/clear", cartControllers.ClearCartHandler(db))             // DELETE /api/cart/clear
		cart.GET("/count", cartControllers.CartCountHandler(db))                // GET /api/cart/count
		cart.POST("/apply-coupon", cartControllers.ApplyCouponHandler(db))      // POST /api/cart/apply-coupon
	}
}
