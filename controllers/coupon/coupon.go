package couponController

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/database"
	"github.com/Mouss911/webnet-back/models"
	"github.com/Mouss911/webnet-back/pagination"
)

// CouponInput is used for both create and update; on update absent fields are
// left unchanged.
type CouponInput struct {
	Code        *string             `json:"code"`
	Type        *string             `json:"type"`
	Value       *decimal.Decimal    `json:"value"`
	ExpiresAt   *time.Time          `json:"expires_at"`
	MinPurchase decimal.NullDecimal `json:"min_purchase"`
}

func parseType(s string) (models.CouponType, error) {
	switch models.CouponType(strings.ToLower(strings.TrimSpace(s))) {
	case models.CouponTypeFixed:
		return models.CouponTypeFixed, nil
	case models.CouponTypePercentage:
		return models.CouponTypePercentage, nil
	}
	return "", apperr.Validation("The selected type is invalid.")
}

func validate(c *models.Coupon) error {
	if c.Code == "" {
		return apperr.Validation("The code field is required.")
	}
	if c.Value.IsNegative() {
		return apperr.Validation("The value must be at least 0.")
	}
	if c.Type == models.CouponTypePercentage && c.Value.GreaterThan(decimal.NewFromInt(100)) {
		return apperr.Validation("A percentage coupon cannot exceed 100.")
	}
	if c.MinPurchase.Valid && c.MinPurchase.Decimal.IsNegative() {
		return apperr.Validation("The min purchase must be at least 0.")
	}
	return nil
}

func apply(c *models.Coupon, in CouponInput) error {
	if in.Code != nil {
		c.Code = strings.TrimSpace(*in.Code)
	}
	if in.Type != nil {
		t, err := parseType(*in.Type)
		if err != nil {
			return err
		}
		c.Type = t
	}
	if in.Value != nil {
		c.Value = in.Value.Round(2)
	}
	if in.ExpiresAt != nil {
		c.ExpiresAt = *in.ExpiresAt
	}
	if in.MinPurchase.Valid {
		c.MinPurchase = in.MinPurchase
	}
	return nil
}

func find(db *gorm.DB, id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := db.First(&coupon, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Coupon")
		}
		return nil, apperr.Internal("Failed to fetch coupon", err)
	}
	return &coupon, nil
}

func save(db *gorm.DB, c *models.Coupon) error {
	if err := db.Save(c).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("The code has already been taken.")
		}
		return apperr.Internal("Failed to save coupon", err)
	}
	return nil
}

// -------- Core Logic --------

func ListCoupons(db *gorm.DB, page int) (*pagination.Page[models.Coupon], error) {
	result, err := pagination.Find[models.Coupon](db.Model(&models.Coupon{}).Order("id"), page, pagination.DefaultPerPage)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch coupons", err)
	}
	return result, nil
}

func GetCoupon(db *gorm.DB, id uint) (*models.Coupon, error) {
	return find(db, id)
}

func CreateCoupon(db *gorm.DB, in CouponInput) (*models.Coupon, error) {
	if in.Code == nil || in.Type == nil || in.Value == nil || in.ExpiresAt == nil {
		return nil, apperr.Validation("The code, type, value and expires_at fields are required.")
	}
	var coupon models.Coupon
	if err := apply(&coupon, in); err != nil {
		return nil, err
	}
	if err := validate(&coupon); err != nil {
		return nil, err
	}
	if err := save(db, &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}

func UpdateCoupon(db *gorm.DB, id uint, in CouponInput) (*models.Coupon, error) {
	coupon, err := find(db, id)
	if err != nil {
		return nil, err
	}
	if err := apply(coupon, in); err != nil {
		return nil, err
	}
	if err := validate(coupon); err != nil {
		return nil, err
	}
	if err := save(db, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func DeleteCoupon(db *gorm.DB, id uint) error {
	res := db.Delete(&models.Coupon{}, id)
	if res.Error != nil {
		return apperr.Internal("Failed to delete coupon", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Coupon")
	}
	return nil
}

// -------- Handlers --------

func idParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("coupon"), 10, 64)
	if err != nil {
		return 0, apperr.NotFound("Coupon")
	}
	return uint(id), nil
}

// GET /api/admin/coupons
func ListCouponsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		coupons, err := ListCoupons(db.WithContext(c.Request.Context()), pagination.PageParam(c))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, coupons)
	}
}

// GET /api/admin/coupons/:coupon
func GetCouponHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		coupon, err := GetCoupon(db.WithContext(c.Request.Context()), id)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, coupon)
	}
}

// POST /api/admin/coupons
func CreateCouponHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in CouponInput
		if err := c.ShouldBindJSON(&in); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}
		coupon, err := CreateCoupon(db.WithContext(c.Request.Context()), in)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, coupon)
	}
}

// PUT /api/admin/coupons/:coupon
func UpdateCouponHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		var in CouponInput
		if err := c.ShouldBindJSON(&in); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}
		coupon, err := UpdateCoupon(db.WithContext(c.Request.Context()), id, in)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, coupon)
	}
}

// DELETE /api/admin/coupons/:coupon
func DeleteCouponHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if err := DeleteCoupon(db.WithContext(c.Request.Context()), id); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
