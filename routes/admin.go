package routes

import (
	"github.com/gin-gonic/gin"

	adminController "github.com/Mouss911/webnet-back/controllers/admin"
	cartControllers "github.com/Mouss911/webnet-back/controllers/cart"
	couponController "github.com/Mouss911/webnet-back/controllers/coupon"
	productcontroller "github.com/Mouss911/webnet-back/controllers/product"
)

// SetupAdminRoutes registers catalog management and all "/admin/*" endpoints. Requires an admin token.
func SetupAdminRoutes(admin *gin.RouterGroup, d Deps) {
	db := d.DB

	// ─────────── Product Management ───────────
	admin.POST("/products", productcontroller.CreateProductHandler(db))
	admin.PUT("/products/:id", productcontroller.UpdateProductHandler(db))
	admin.DELETE("/products/:id", productcontroller.DeleteProductHandler(db))

	// ─────────── Category Management ───────────
	admin.POST("/categories", productcontroller.CreateCategoryHandler(db))
	admin.PUT("/categories/:id", productcontroller.UpdateCategoryHandler(db))
	admin.DELETE("/categories/:id", productcontroller.DeleteCategoryHandler(db))

	adminGroup := admin.Group("/admin")
	{
		// ─────────── Dashboard ───────────
		adminGroup.GET("/dashboard/stats", adminController.DashboardStatsHandler(db))
		adminGroup.GET("/orders/stats", adminController.OrderStatsHandler(db))

		// ─────────── User Management ───────────
		adminGroup.GET("/users", adminController.GetAllUsers(db))
		adminGroup.PUT("/users/:user/role", adminController.UpdateUserRoleHandler(db))

		// ─────────── Spreadsheets ───────────
		adminGroup.POST("/products/import-excel", productcontroller.ImportProductsFromExcel(db))
		adminGroup.GET("/products/export-excel", productcontroller.ExportProductsToExcel(db))

		// ─────────── Coupons ───────────
		coupons := adminGroup.Group("/coupons")
		{
			coupons.GET("", couponController.ListCouponsHandler(db))
			coupons.POST("", couponController.CreateCouponHandler(db))
			coupons.GET("/:coupon", couponController.GetCouponHandler(db))
			coupons.PUT("/:coupon", couponController.UpdateCouponHandler(db))
			coupons.DELETE("/:coupon", couponController.DeleteCouponHandler(db))
		}

		cartMgmt := adminGroup.Group("/user-cart")
		{
			cartMgmt.GET("/:user_id", cartControllers.GetAdminUserCart(db))
		}
	}
}
