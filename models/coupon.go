package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponTypeFixed      CouponType = "fixed"
	CouponTypePercentage CouponType = "percentage"
)

type Coupon struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	Code        string              `gorm:"type:VARCHAR(64);uniqueIndex;not null" json:"code"`
	Type        CouponType          `gorm:"type:VARCHAR(20);not null" json:"type"`
	Value       decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"value"`
	MinPurchase decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"min_purchase"`
	ExpiresAt   time.Time           `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// IsValid reports whether the coupon has not yet expired at now.
func (c Coupon) IsValid(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// Discount returns the amount taken off a purchase of amount, never more than amount itself.
func (c Coupon) Discount(amount decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	if c.Type == CouponTypePercentage {
		d = amount.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	} else {
		d = c.Value
	}
	if d.GreaterThan(amount) {
		return amount
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Applies reports whether amount meets the coupon's minimum purchase.
func (c Coupon) Applies(amount decimal.Decimal) bool {
	if !c.MinPurchase.Valid {
		return true
	}
	return amount.GreaterThanOrEqual(c.MinPurchase.Decimal)
}
