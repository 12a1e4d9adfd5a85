package orderControllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/auth"
	"github.com/Mouss911/webnet-back/database"
	"github.com/Mouss911/webnet-back/metrics"
	"github.com/Mouss911/webnet-back/models"
)

// -------- Request Structs --------
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	BillingAddress  string `json:"billing_address"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

var (
	errCartAlreadyCheckedOut = errors.New("cart is no longer active")
	errCartEmpty             = errors.New("cart is empty")
)

// -------- Helpers --------

func loadOrder(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Items.Product", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		First(&order, orderID).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Order")
		}
		return nil, apperr.Internal("Failed to fetch order", err)
	}
	return &order, nil
}

func ownedOrder(db *gorm.DB, actor auth.Actor, orderID uint) (*models.Order, error) {
	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID {
		return nil, apperr.Forbidden("Unauthorized")
	}
	return order, nil
}

// -------- Core Logic --------

// Checkout turns the actor's active cart into a pending order. The order, its
// items and the cart completion commit together or not at all.
func Checkout(db *gorm.DB, actor auth.Actor, req CheckoutRequest) (*models.Order, error) {
	shipping := strings.TrimSpace(req.ShippingAddress)
	if shipping == "" {
		return nil, apperr.Validation("The shipping address field is required.")
	}
	billing := strings.TrimSpace(req.BillingAddress)
	if billing == "" {
		billing = shipping
	}

	var cart models.Cart
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Where("user_id = ? AND status = ?", actor.UserID, models.CartStatusActive).
		First(&cart).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Active cart")
		}
		return nil, apperr.Internal("Failed to fetch cart", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperr.InvalidState("Cart is empty")
	}

	order := models.Order{
		Reference:       uuid.NewString(),
		UserID:          actor.UserID,
		Status:          models.OrderStatusPending,
		ShippingAddress: shipping,
		BillingAddress:  billing,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Claim the cart first; only one checkout of a cart can win.
		res := tx.Model(&models.Cart{}).
			Where("id = ? AND status = ?", cart.ID, models.CartStatusActive).
			Update("status", models.CartStatusCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errCartAlreadyCheckedOut
		}

		// Snapshot the lines as of the claim, not as of the pre-check.
		var lines []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Order("id").Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return errCartEmpty
		}
		order.TotalAmount = models.Cart{Items: lines}.Total()

		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, item := range lines {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
		}
		return tx.Create(&items).Error
	})
	if errors.Is(err, errCartEmpty) {
		return nil, apperr.InvalidState("Cart is empty")
	}
	if err != nil {
		return nil, apperr.TransactionFailure("Order creation failed", err)
	}

	return loadOrder(db, order.ID)
}

// GetOrder returns one of the actor's orders.
func GetOrder(db *gorm.DB, actor auth.Actor, orderID uint) (*models.Order, error) {
	return ownedOrder(db, actor, orderID)
}

// ListOrders returns the actor's orders, newest first.
func ListOrders(db *gorm.DB, actor auth.Actor) ([]models.Order, error) {
	orders := []models.Order{}
	err := db.
		Where("user_id = ?", actor.UserID).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Items.Product", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal("Failed to fetch orders", err)
	}
	return orders, nil
}

// CancelOrder lets the owner cancel an order that has not started processing.
func CancelOrder(db *gorm.DB, actor auth.Actor, orderID uint) (*models.Order, error) {
	order, err := ownedOrder(db, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperr.InvalidState("Only pending orders can be cancelled")
	}

	res := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
		Update("status", models.OrderStatusCancelled)
	if res.Error != nil {
		return nil, apperr.Internal("Failed to cancel order", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.InvalidState("Only pending orders can be cancelled")
	}
	return loadOrder(db, order.ID)
}

// UpdateStatus moves an order to status under policy. It reports whether the
// stored status changed; setting the current status again is a no-op.
func UpdateStatus(db *gorm.DB, policy TransitionPolicy, orderID uint, status models.OrderStatus) (*models.Order, bool, error) {
	to, err := models.ParseOrderStatus(string(status))
	if err != nil {
		return nil, false, apperr.Validation("The selected status is invalid.")
	}

	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, false, err
	}
	from := order.Status
	if from == to {
		return order, false, nil
	}
	if err := policy.Allow(from, to); err != nil {
		return nil, false, err
	}

	res := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, from).
		Update("status", to)
	if res.Error != nil {
		return nil, false, apperr.Internal("Failed to update order status", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, false, apperr.Conflict("Order status was changed by another request")
	}

	order, err = loadOrder(db, order.ID)
	if err != nil {
		return nil, false, err
	}
	return order, true, nil
}

// AllOrders lists every order for admins, optionally filtered by status.
func AllOrders(db *gorm.DB, status string) ([]models.Order, error) {
	q := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Items.Product", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Order("created_at DESC").
		Order("id DESC")
	if status != "" {
		s, err := models.ParseOrderStatus(status)
		if err != nil {
			return nil, apperr.Validation("The selected status is invalid.")
		}
		q = q.Where("status = ?", s)
	}

	orders := []models.Order{}
	if err := q.Find(&orders).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch orders", err)
	}
	return orders, nil
}

// -------- Handlers --------

func orderIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("order"), 10, 64)
	if err != nil {
		return 0, apperr.NotFound("Order")
	}
	return uint(id), nil
}

func checkoutOutcome(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindInvalidState:
		return "rejected"
	default:
		return "failed"
	}
}

// POST /api/orders
func PlaceOrderHandler(db *gorm.DB, hub *Hub, m *metrics.ServerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}

		order, err := Checkout(db.WithContext(c.Request.Context()), actor, req)
		if err != nil {
			m.CheckoutOutcome(checkoutOutcome(err))
			apperr.Respond(c, err)
			return
		}
		m.CheckoutOutcome("success")
		hub.Broadcast(Event{Type: EventOrderCreated, Order: *order})
		c.JSON(http.StatusCreated, order)
	}
}

// GET /api/orders
func ListOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		orders, err := ListOrders(db.WithContext(c.Request.Context()), actor)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /api/orders/:order
func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		orderID, err := orderIDParam(c)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		order, err := GetOrder(db.WithContext(c.Request.Context()), actor, orderID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// POST /api/orders/cancel/:order
func CancelOrderHandler(db *gorm.DB, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		orderID, err := orderIDParam(c)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		order, err := CancelOrder(db.WithContext(c.Request.Context()), actor, orderID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		hub.Broadcast(Event{Type: EventOrderStatusChanged, Order: *order})
		c.JSON(http.StatusOK, order)
	}
}

// PUT /api/orders/:order/status
func UpdateOrderStatusHandler(db *gorm.DB, policy TransitionPolicy, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := orderIDParam(c)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}
		newStatus, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			apperr.Respond(c, apperr.Validation("The selected status is invalid."))
			return
		}

		order, changed, err := UpdateStatus(db.WithContext(c.Request.Context()), policy, orderID, newStatus)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if changed {
			hub.Broadcast(Event{Type: EventOrderStatusChanged, Order: *order})
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /api/admin/orders?status=
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := AllOrders(db.WithContext(c.Request.Context()), c.Query("status"))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}
