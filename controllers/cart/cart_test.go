package cartControllers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/auth"
	"github.com/Mouss911/webnet-back/database/dbtest"
	"github.com/Mouss911/webnet-back/models"
)

type fixture struct {
	db      *gorm.DB
	alice   auth.Actor
	bob     auth.Actor
	shirt   models.Product
	trouser models.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.New(t)
	cat := dbtest.Category(t, db, "Clothes")
	alice := dbtest.User(t, db, models.RoleUser)
	bob := dbtest.User(t, db, models.RoleUser)
	return fixture{
		db:      db,
		alice:   auth.Actor{UserID: alice.ID, Role: alice.Role},
		bob:     auth.Actor{UserID: bob.ID, Role: bob.Role},
		shirt:   dbtest.Product(t, db, cat.ID, "Shirt", "20.00"),
		trouser: dbtest.Product(t, db, cat.ID, "Trouser", "45.99"),
	}
}

func TestActiveCartIsCreatedOnce(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cart, err := ActiveCart(f.db, f.alice.UserID)
			errs[i] = err
			if err == nil {
				ids[i] = cart.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("ActiveCart #%d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("got carts %d and %d for the same user", ids[0], ids[i])
		}
	}

	var n int64
	f.db.Model(&models.Cart{}).Where("user_id = ?", f.alice.UserID).Count(&n)
	if n != 1 {
		t.Fatalf("carts = %d, want 1", n)
	}
}

func TestActiveCartOutlivesCancelledCaller(t *testing.T) {
	f := newFixture(t)

	// The shared find-or-create must not inherit the cancellation of whichever
	// request happened to start it.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cart, err := ActiveCart(f.db.WithContext(ctx), f.alice.UserID)
	if err != nil {
		t.Fatalf("ActiveCart with cancelled caller: %v", err)
	}
	again, err := ActiveCart(f.db, f.alice.UserID)
	if err != nil || again.ID != cart.ID {
		t.Fatalf("ActiveCart = %+v, %v; want cart %d", again, err, cart.ID)
	}
}

func TestFindOrCreateRereadsAfterUniqueViolation(t *testing.T) {
	f := newFixture(t)
	existing := models.Cart{UserID: f.alice.UserID, Status: models.CartStatusActive}
	if err := f.db.Create(&existing).Error; err != nil {
		t.Fatal(err)
	}

	// Hide the existing cart from the first lookup only, as if another
	// process inserted it between our read and our insert.
	hidden := true
	f.db.Callback().Query().Before("gorm:query").Register("test:hide_cart", func(tx *gorm.DB) {
		if hidden && tx.Statement.Schema != nil && tx.Statement.Schema.Table == "carts" {
			hidden = false
			tx.Where("1 = 0")
		}
	})

	cart, err := findOrCreateActiveCart(f.db, f.alice.UserID)
	if err != nil {
		t.Fatalf("findOrCreateActiveCart: %v", err)
	}
	if cart.ID != existing.ID {
		t.Fatalf("cart id = %d, want existing %d", cart.ID, existing.ID)
	}
}

func TestAddItemThenViewCart(t *testing.T) {
	f := newFixture(t)

	item, err := AddItem(f.db, f.alice, AddItemRequest{ProductID: f.shirt.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if item.Product == nil || item.Product.ID != f.shirt.ID {
		t.Fatalf("item product not attached: %+v", item)
	}

	cart, err := ViewCart(f.db, f.alice)
	if err != nil {
		t.Fatalf("ViewCart: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(cart.Items))
	}
	got := cart.Items[0]
	if got.ProductID != f.shirt.ID || got.Quantity != 3 {
		t.Fatalf("unexpected line %+v", got)
	}
	if !got.Price.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("price = %s, want 60.00", got.Price)
	}
}

func TestAddItemOverwritesQuantity(t *testing.T) {
	f := newFixture(t)

	if _, err := AddItem(f.db, f.alice, AddItemRequest{ProductID: f.trouser.ID, Quantity: 2}); err != nil {
		t.Fatal(err)
	}
	item, err := AddItem(f.db, f.alice, AddItemRequest{ProductID: f.trouser.ID, Quantity: 5})
	if err != nil {
		t.Fatal(err)
	}
	if item.Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", item.Quantity)
	}
	if !item.Price.Equal(decimal.RequireFromString("229.95")) {
		t.Fatalf("price = %s, want 229.95", item.Price)
	}

	count, err := CartCount(f.db, f.alice)
	if err != nil {
		t.Fatal(err)
	}
	if count.Lines != 1 || count.Units != 5 {
		t.Fatalf("count = %+v, want 1 line / 5 units", count)
	}
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		req  AddItemRequest
	}{
		{"zero quantity", AddItemRequest{ProductID: f.shirt.ID, Quantity: 0}},
		{"negative quantity", AddItemRequest{ProductID: f.shirt.ID, Quantity: -1}},
		{"unknown product", AddItemRequest{ProductID: 9999, Quantity: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := AddItem(f.db, f.alice, tc.req); !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("AddItem() error = %v, want validation", err)
			}
		})
	}
}

func TestUpdateItemRepricesAtCatalogPrice(t *testing.T) {
	f := newFixture(t)
	item, err := AddItem(f.db, f.alice, AddItemRequest{ProductID: f.shirt.ID, Quantity: 1})
	if err != nil {
		t.Fatal(err)
	}

	f.db.Model(&models.Product{}).Where("id = ?", f.shirt.ID).Update("price", decimal.RequireFromString("25.50"))

	updated, err := UpdateItem(f.db, f.alice, item.ID, 2)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Quantity != 2 || !updated.Price.Equal(decimal.RequireFromString("51.00")) {
		t.Fatalf("updated = qty %d price %s, want 2 / 51.00", updated.Quantity, updated.Price)
	}
}

func TestForeignItemIsForbidden(t *testing.T) {
	f := newFixture(t)
	item, err := AddItem(f.db, f.alice, AddItemRequest{ProductID: f.shirt.ID, Quantity: 2})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := UpdateItem(f.db, f.bob, item.ID, 7); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("UpdateItem by other user error = %v, want forbidden", err)
	}
	if err := RemoveItem(f.db, f.bob, item.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("RemoveItem by other user error = %v, want forbidden", err)
	}

	var stored models.CartItem
	if err := f.db.First(&stored, item.ID).Error; err != nil {
		t.Fatalf("item vanished: %v", err)
	}
	if stored.Quantity != 2 {
		t.Fatalf("quantity = %d, want unchanged 2", stored.Quantity)
	}
}

func TestMissingItemIsNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := UpdateItem(f.db, f.alice, 4242, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("UpdateItem error = %v, want not found", err)
	}
	if err := RemoveItem(f.db, f.alice, 4242); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("RemoveItem error = %v, want not found", err)
	}
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	first, _ := AddItem(f.db, f.alice, AddItemRequest{ProductID: f.shirt.ID, Quantity: 1})
	if _, err := AddItem(f.db, f.alice, AddItemRequest{ProductID: f.trouser.ID, Quantity: 1}); err != nil {
		t.Fatal(err)
	}

	if err := RemoveItem(f.db, f.alice, first.ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	cart, _ := ViewCart(f.db, f.alice)
	if len(cart.Items) != 1 || cart.Items[0].ProductID != f.trouser.ID {
		t.Fatalf("unexpected items after remove: %+v", cart.Items)
	}

	if err := ClearCart(f.db, f.alice); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}
	cart, _ = ViewCart(f.db, f.alice)
	if len(cart.Items) != 0 {
		t.Fatalf("items after clear = %d", len(cart.Items))
	}
}

func TestApplyCouponPreview(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	coupons := []models.Coupon{
		{Code: "TEN", Type: models.CouponTypePercentage, Value: decimal.NewFromInt(10), ExpiresAt: now.Add(time.Hour)},
		{Code: "OLD", Type: models.CouponTypeFixed, Value: decimal.NewFromInt(5), ExpiresAt: now.Add(-time.Hour)},
		{Code: "BIG", Type: models.CouponTypeFixed, Value: decimal.NewFromInt(5), ExpiresAt: now.Add(time.Hour),
			MinPurchase: decimal.NewNullDecimal(decimal.NewFromInt(1000))},
	}
	if err := f.db.Create(&coupons).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := ApplyCoupon(f.db, f.alice, "TEN", now); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("empty cart error = %v, want invalid state", err)
	}

	if _, err := AddItem(f.db, f.alice, AddItemRequest{ProductID: f.shirt.ID, Quantity: 2}); err != nil {
		t.Fatal(err)
	}

	preview, err := ApplyCoupon(f.db, f.alice, "TEN", now)
	if err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	if !preview.Subtotal.Equal(decimal.NewFromInt(40)) || !preview.Discount.Equal(decimal.NewFromInt(4)) || !preview.Total.Equal(decimal.NewFromInt(36)) {
		t.Fatalf("unexpected preview %+v", preview)
	}

	for code, want := range map[string]error{
		"OLD":     apperr.ErrInvalidState,
		"BIG":     apperr.ErrInvalidState,
		"MISSING": apperr.ErrNotFound,
	} {
		if _, err := ApplyCoupon(f.db, f.alice, code, now); !errors.Is(err, want) {
			t.Errorf("ApplyCoupon(%s) error = %v, want %v", code, err, want)
		}
	}

	// The preview never changes what is stored.
	cart, _ := ViewCart(f.db, f.alice)
	if !cart.Total().Equal(decimal.NewFromInt(40)) {
		t.Fatalf("cart total = %s after preview", cart.Total())
	}
}

func TestAdminUserCartDoesNotCreate(t *testing.T) {
	f := newFixture(t)
	if _, err := AdminUserCart(f.db, f.bob.UserID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("AdminUserCart error = %v, want not found", err)
	}
	var n int64
	f.db.Model(&models.Cart{}).Where("user_id = ?", f.bob.UserID).Count(&n)
	if n != 0 {
		t.Fatalf("carts = %d, want 0", n)
	}
}
