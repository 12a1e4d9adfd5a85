package cartControllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/auth"
	"github.com/Mouss911/webnet-back/database"
	"github.com/Mouss911/webnet-back/models"
)

type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// Count summarises the active cart: distinct lines and total units.
type Count struct {
	Lines int64 `json:"lines"`
	Units int64 `json:"units"`
}

// CouponPreview is what the active cart would cost with a coupon applied.
type CouponPreview struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Collapses concurrent first-time cart creation per user within this process.
var activeCarts singleflight.Group

// -------- Core Logic --------

// ActiveCart returns the user's active cart, creating an empty one if none exists.
func ActiveCart(db *gorm.DB, userID string) (*models.Cart, error) {
	// The call is shared with other waiters, so it must not die with this caller's request.
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	shared := db.WithContext(context.WithoutCancel(ctx))

	v, err, _ := activeCarts.Do(userID, func() (interface{}, error) {
		return findOrCreateActiveCart(shared, userID)
	})
	if err != nil {
		return nil, err
	}
	cart := *v.(*models.Cart)
	return &cart, nil
}

func findOrCreateActiveCart(db *gorm.DB, userID string) (*models.Cart, error) {
	cart, err := findActiveCart(db, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("Failed to fetch cart", err)
	}

	created := models.Cart{UserID: userID, Status: models.CartStatusActive}
	if err := db.Create(&created).Error; err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, apperr.Internal("Failed to create cart", err)
		}
		// Another process created it first.
		cart, err = findActiveCart(db, userID)
		if err != nil {
			return nil, apperr.Internal("Failed to fetch cart", err)
		}
		return cart, nil
	}
	return &created, nil
}

func findActiveCart(db *gorm.DB, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := db.Where("user_id = ? AND status = ?", userID, models.CartStatusActive).First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// loadCart reads a cart with its items and their products. Soft-deleted
// products are still attached so old lines keep rendering.
func loadCart(db *gorm.DB, cartID uint) (*models.Cart, error) {
	var cart models.Cart
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Items.Product", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		First(&cart, cartID).Error
	if err != nil {
		return nil, apperr.Internal("Failed to fetch cart", err)
	}
	return &cart, nil
}

func loadItem(db *gorm.DB, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := db.
		Preload("Product", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		First(&item, itemID).Error
	if err != nil {
		return nil, apperr.Internal("Failed to fetch cart item", err)
	}
	return &item, nil
}

// linePrice is the single pricing rule for cart lines.
func linePrice(product models.Product, quantity int) decimal.Decimal {
	return product.Price.Mul(decimal.NewFromInt(int64(quantity)))
}

func validQuantity(quantity int) error {
	if quantity < 1 {
		return apperr.Validation("The quantity must be at least 1.")
	}
	return nil
}

func purchasableProduct(db *gorm.DB, productID uint) (*models.Product, error) {
	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("The selected product id is invalid.")
		}
		return nil, apperr.Internal("Failed to validate product", err)
	}
	return &product, nil
}

// ownedItem loads a cart item and checks that it sits in the actor's active cart.
func ownedItem(db *gorm.DB, actor auth.Actor, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Cart item")
		}
		return nil, apperr.Internal("Failed to fetch cart item", err)
	}

	var cart models.Cart
	if err := db.First(&cart, item.CartID).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch cart", err)
	}
	if cart.UserID != actor.UserID {
		return nil, apperr.Forbidden("Unauthorized")
	}
	if cart.Status != models.CartStatusActive {
		return nil, apperr.InvalidState("Cart is no longer active")
	}
	return &item, nil
}

// AddItem puts a product in the actor's active cart. An existing line for the
// same product is overwritten, not incremented.
func AddItem(db *gorm.DB, actor auth.Actor, req AddItemRequest) (*models.CartItem, error) {
	if err := validQuantity(req.Quantity); err != nil {
		return nil, err
	}
	product, err := purchasableProduct(db, req.ProductID)
	if err != nil {
		return nil, err
	}
	cart, err := ActiveCart(db, actor.UserID)
	if err != nil {
		return nil, err
	}

	price := linePrice(*product, req.Quantity)
	itemID, err := upsertItem(db, cart.ID, product.ID, req.Quantity, price)
	if err != nil {
		return nil, err
	}
	return loadItem(db, itemID)
}

func upsertItem(db *gorm.DB, cartID, productID uint, quantity int, price decimal.Decimal) (uint, error) {
	for attempt := 0; attempt < 2; attempt++ {
		var item models.CartItem
		err := db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
		switch {
		case err == nil:
			if err := db.Model(&item).Updates(map[string]interface{}{
				"quantity": quantity,
				"price":    price,
			}).Error; err != nil {
				return 0, apperr.Internal("Failed to update cart item", err)
			}
			return item.ID, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return 0, apperr.Internal("Failed to fetch cart item", err)
		}

		item = models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity, Price: price}
		err = db.Create(&item).Error
		if err == nil {
			return item.ID, nil
		}
		if !database.IsUniqueViolation(err) {
			return 0, apperr.Internal("Failed to add item to cart", err)
		}
		// A concurrent add created the line; loop once more to overwrite it.
	}
	return 0, apperr.Internal("Failed to add item to cart", errors.New("cart item upsert did not settle"))
}

// UpdateItem sets a new quantity on one of the actor's lines and reprices it
// at the current catalog price.
func UpdateItem(db *gorm.DB, actor auth.Actor, itemID uint, quantity int) (*models.CartItem, error) {
	if err := validQuantity(quantity); err != nil {
		return nil, err
	}
	item, err := ownedItem(db, actor, itemID)
	if err != nil {
		return nil, err
	}
	product, err := purchasableProduct(db, item.ProductID)
	if err != nil {
		return nil, err
	}

	if err := db.Model(item).Updates(map[string]interface{}{
		"quantity": quantity,
		"price":    linePrice(*product, quantity),
	}).Error; err != nil {
		return nil, apperr.Internal("Failed to update cart item", err)
	}
	return loadItem(db, item.ID)
}

func RemoveItem(db *gorm.DB, actor auth.Actor, itemID uint) error {
	item, err := ownedItem(db, actor, itemID)
	if err != nil {
		return err
	}
	if err := db.Delete(&models.CartItem{}, item.ID).Error; err != nil {
		return apperr.Internal("Failed to delete item", err)
	}
	return nil
}

// ViewCart returns the actor's active cart with items and products.
func ViewCart(db *gorm.DB, actor auth.Actor) (*models.Cart, error) {
	cart, err := ActiveCart(db, actor.UserID)
	if err != nil {
		return nil, err
	}
	return loadCart(db, cart.ID)
}

func ClearCart(db *gorm.DB, actor auth.Actor) error {
	cart, err := ActiveCart(db, actor.UserID)
	if err != nil {
		return err
	}
	if err := db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return apperr.Internal("Failed to clear cart", err)
	}
	return nil
}

func CartCount(db *gorm.DB, actor auth.Actor) (Count, error) {
	var count Count
	cart, err := ActiveCart(db, actor.UserID)
	if err != nil {
		return count, err
	}
	err = db.Model(&models.CartItem{}).
		Select("COUNT(*) AS lines, COALESCE(SUM(quantity), 0) AS units").
		Where("cart_id = ?", cart.ID).
		Scan(&count).Error
	if err != nil {
		return count, apperr.Internal("Failed to count cart items", err)
	}
	return count, nil
}

// ApplyCoupon prices the active cart with a coupon. Nothing is persisted.
func ApplyCoupon(db *gorm.DB, actor auth.Actor, code string, now time.Time) (*CouponPreview, error) {
	var coupon models.Coupon
	code = strings.TrimSpace(code)
	if err := db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Coupon")
		}
		return nil, apperr.Internal("Failed to fetch coupon", err)
	}
	if !coupon.IsValid(now) {
		return nil, apperr.InvalidState("Coupon has expired")
	}

	cart, err := ViewCart(db, actor)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.InvalidState("Cart is empty")
	}
	subtotal := cart.Total()
	if !coupon.Applies(subtotal) {
		return nil, apperr.InvalidState("Cart total is below the coupon minimum purchase")
	}

	discount := coupon.Discount(subtotal)
	return &CouponPreview{
		Code:     coupon.Code,
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}, nil
}

// AdminUserCart returns a user's active cart without creating one.
func AdminUserCart(db *gorm.DB, userID string) (*models.Cart, error) {
	cart, err := findActiveCart(db, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Cart")
		}
		return nil, apperr.Internal("Failed to fetch cart", err)
	}
	return loadCart(db, cart.ID)
}

// -------- Handlers --------

func itemIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("cartItem"), 10, 64)
	if err != nil {
		return 0, apperr.NotFound("Cart item")
	}
	return uint(id), nil
}

// GET /api/cart
func ViewCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		cart, err := ViewCart(db.WithContext(c.Request.Context()), actor)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// POST /api/cart/add
func AddItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		var req AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}

		item, err := AddItem(db.WithContext(c.Request.Context()), actor, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

// PUT /api/cart/update/:cartItem
func UpdateItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		itemID, err := itemIDParam(c)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		var req UpdateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}

		item, err := UpdateItem(db.WithContext(c.Request.Context()), actor, itemID, req.Quantity)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// DELETE /api/cart/remove/:cartItem
func RemoveItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		itemID, err := itemIDParam(c)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if err := RemoveItem(db.WithContext(c.Request.Context()), actor, itemID); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DELETE /api/cart/clear
func ClearCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		if err := ClearCart(db.WithContext(c.Request.Context()), actor); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

// GET /api/cart/count
func CartCountHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		count, err := CartCount(db.WithContext(c.Request.Context()), actor)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, count)
	}
}

// POST /api/cart/apply-coupon
func ApplyCouponHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		var req ApplyCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}

		preview, err := ApplyCoupon(db.WithContext(c.Request.Context()), actor, req.Code, time.Now())
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, preview)
	}
}

// GET /api/admin/user-cart/:user_id
func GetAdminUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if userID == "" {
			apperr.Respond(c, apperr.Validation("user_id is required"))
			return
		}

		cart, err := AdminUserCart(db.WithContext(c.Request.Context()), userID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}
