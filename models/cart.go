package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive    CartStatus = "active"    // Accepting modifications
	CartStatusCompleted CartStatus = "completed" // Checked out, kept as history
)

// Cart belongs to one user. Only one cart per user may be active at a time;
// database.Migrate adds the partial unique index that enforces it.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"not null;index" json:"user_id"`
	Status    CartStatus `gorm:"type:VARCHAR(20);not null;default:'active'" json:"status"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"` // Items outlive a completed cart
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CartID    uint            `gorm:"not null;uniqueIndex:ux_cart_items_cart_product" json:"cart_id"`
	ProductID uint            `gorm:"not null;uniqueIndex:ux_cart_items_cart_product" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"` // quantity × unit price when last written
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Total sums the snapshotted line prices.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price)
	}
	return total
}
