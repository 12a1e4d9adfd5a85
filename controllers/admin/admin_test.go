package adminController

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/database/dbtest"
	"github.com/Mouss911/webnet-back/models"
)

func createOrder(t *testing.T, db *gorm.DB, userID string, total string, status models.OrderStatus) {
	t.Helper()
	o := models.Order{
		Reference:       uuid.NewString(),
		UserID:          userID,
		TotalAmount:     decimal.RequireFromString(total),
		Status:          status,
		ShippingAddress: "a",
		BillingAddress:  "a",
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatal(err)
	}
}

func TestStats(t *testing.T) {
	db := dbtest.New(t)

	empty, err := GetDashboardStats(db)
	if err != nil {
		t.Fatalf("GetDashboardStats on empty db: %v", err)
	}
	if !empty.Revenue.IsZero() {
		t.Fatalf("revenue = %s, want 0", empty.Revenue)
	}

	user := dbtest.User(t, db, models.RoleUser)
	cat := dbtest.Category(t, db, "Misc")
	dbtest.Product(t, db, cat.ID, "Thing", "1.00")
	createOrder(t, db, user.ID, "10.50", models.OrderStatusCompleted)
	createOrder(t, db, user.ID, "20.25", models.OrderStatusCompleted)
	createOrder(t, db, user.ID, "99.00", models.OrderStatusPending)

	stats, err := GetDashboardStats(db)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalUsers != 1 || stats.TotalOrders != 3 || stats.TotalProducts != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if !stats.Revenue.Equal(decimal.RequireFromString("30.75")) {
		t.Fatalf("revenue = %s, want 30.75", stats.Revenue)
	}

	byStatus, err := GetOrderStats(db)
	if err != nil {
		t.Fatal(err)
	}
	want := map[models.OrderStatus]int64{
		models.OrderStatusPending:    1,
		models.OrderStatusProcessing: 0,
		models.OrderStatusCompleted:  2,
		models.OrderStatusCancelled:  0,
	}
	for s, n := range want {
		if byStatus[s] != n {
			t.Errorf("%s = %d, want %d", s, byStatus[s], n)
		}
	}
}

func TestListUsersPaginates(t *testing.T) {
	db := dbtest.New(t)
	for i := 0; i < 12; i++ {
		dbtest.User(t, db, models.RoleUser)
	}
	page, err := ListUsers(db, 2)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 12 || len(page.Data) != 2 || page.LastPage != 2 {
		t.Fatalf("page = total %d, rows %d, last %d", page.Total, len(page.Data), page.LastPage)
	}
}

func TestUpdateUserRole(t *testing.T) {
	db := dbtest.New(t)
	user := dbtest.User(t, db, models.RoleUser)

	got, err := UpdateUserRole(db, user.ID, "admin")
	if err != nil || got.Role != models.RoleAdmin {
		t.Fatalf("UpdateUserRole = %+v, %v", got, err)
	}

	for _, tc := range []struct {
		id, role string
		want     error
	}{
		{user.ID, "root", apperr.ErrValidation},
		{"missing", "user", apperr.ErrNotFound},
	} {
		t.Run(fmt.Sprintf("%s/%s", tc.id, tc.role), func(t *testing.T) {
			if _, err := UpdateUserRole(db, tc.id, tc.role); !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}
