package adminController

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/database"
	"github.com/Mouss911/webnet-back/models"
	"github.com/Mouss911/webnet-back/pagination"
)

type DashboardStats struct {
	TotalUsers    int64           `json:"total_users"`
	TotalOrders   int64           `json:"total_orders"`
	TotalProducts int64           `json:"total_products"`
	Revenue       decimal.Decimal `json:"revenue"` // completed orders only
}

type UpdateRoleInput struct {
	Role string `json:"role" binding:"required"`
}

// -------- Core Logic --------

func GetDashboardStats(db *gorm.DB) (*DashboardStats, error) {
	var stats DashboardStats
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, apperr.Internal("Failed to compute stats", err)
	}
	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, apperr.Internal("Failed to compute stats", err)
	}
	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, apperr.Internal("Failed to compute stats", err)
	}

	var revenue decimal.NullDecimal
	err := db.Model(&models.Order{}).
		Select("SUM(total_amount)").
		Where("status = ?", models.OrderStatusCompleted).
		Row().Scan(&revenue)
	if err != nil {
		return nil, apperr.Internal("Failed to compute stats", err)
	}
	stats.Revenue = decimal.Zero
	if revenue.Valid {
		stats.Revenue = revenue.Decimal
	}
	return &stats, nil
}

// GetOrderStats counts orders per status, listing every status even when zero.
func GetOrderStats(db *gorm.DB) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal("Failed to compute order stats", err)
	}

	stats := make(map[models.OrderStatus]int64)
	for _, s := range models.AllOrderStatuses() {
		stats[s] = 0
	}
	for _, r := range rows {
		stats[r.Status] = r.Count
	}
	return stats, nil
}

func ListUsers(db *gorm.DB, page int) (*pagination.Page[models.User], error) {
	result, err := pagination.Find[models.User](db.Model(&models.User{}).Order("created_at DESC").Order("id"), page, pagination.DefaultPerPage)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch users", err)
	}
	return result, nil
}

// UpdateUserRole promotes or demotes a user. Tokens already issued keep the
// role they were signed with until they expire or are refreshed.
func UpdateUserRole(db *gorm.DB, userID, role string) (*models.User, error) {
	r, ok := models.ParseRole(role)
	if !ok {
		return nil, apperr.Validation("The selected role is invalid.")
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, apperr.Internal("Failed to fetch user", err)
	}
	if err := db.Model(&user).Update("role", r).Error; err != nil {
		return nil, apperr.Internal("Failed to update role", err)
	}
	return &user, nil
}

// -------- Handlers --------

// GET /api/admin/dashboard/stats
func DashboardStatsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := GetDashboardStats(db.WithContext(c.Request.Context()))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// GET /api/admin/orders/stats
func OrderStatsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := GetOrderStats(db.WithContext(c.Request.Context()))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// GET /api/admin/users
func GetAllUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := ListUsers(db.WithContext(c.Request.Context()), pagination.PageParam(c))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// PUT /api/admin/users/:user/role
func UpdateUserRoleHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input UpdateRoleInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}
		user, err := UpdateUserRole(db.WithContext(c.Request.Context()), c.Param("user"), input.Role)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
