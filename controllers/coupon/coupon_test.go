package couponController

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/database/dbtest"
	"github.com/Mouss911/webnet-back/models"
)

func strp(s string) *string { return &s }

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validInput(code string) CouponInput {
	expires := time.Now().Add(24 * time.Hour)
	return CouponInput{
		Code:      strp(code),
		Type:      strp("percentage"),
		Value:     decp("15"),
		ExpiresAt: &expires,
	}
}

func TestCreateCoupon(t *testing.T) {
	db := dbtest.New(t)

	coupon, err := CreateCoupon(db, validInput("SPRING"))
	if err != nil {
		t.Fatalf("CreateCoupon: %v", err)
	}
	if coupon.Type != models.CouponTypePercentage || !coupon.Value.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("coupon = %+v", coupon)
	}
	if coupon.MinPurchase.Valid {
		t.Fatal("min purchase should be unset")
	}

	if _, err := CreateCoupon(db, validInput("SPRING")); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate code: err = %v, want conflict", err)
	}
}

func TestCreateCouponValidation(t *testing.T) {
	db := dbtest.New(t)

	tests := []struct {
		name   string
		mutate func(*CouponInput)
	}{
		{"missing code", func(in *CouponInput) { in.Code = nil }},
		{"blank code", func(in *CouponInput) { in.Code = strp("  ") }},
		{"missing expiry", func(in *CouponInput) { in.ExpiresAt = nil }},
		{"unknown type", func(in *CouponInput) { in.Type = strp("bogo") }},
		{"negative value", func(in *CouponInput) { in.Value = decp("-1") }},
		{"percentage over 100", func(in *CouponInput) { in.Value = decp("120") }},
		{"negative min purchase", func(in *CouponInput) {
			in.MinPurchase = decimal.NewNullDecimal(decimal.NewFromInt(-5))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput("X")
			tt.mutate(&in)
			if _, err := CreateCoupon(db, in); !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}

	var n int64
	db.Model(&models.Coupon{}).Count(&n)
	if n != 0 {
		t.Fatalf("%d coupons stored, want 0", n)
	}
}

func TestUpdateAndDeleteCoupon(t *testing.T) {
	db := dbtest.New(t)

	coupon, err := CreateCoupon(db, validInput("FIVE"))
	if err != nil {
		t.Fatal(err)
	}

	updated, err := UpdateCoupon(db, coupon.ID, CouponInput{
		Type:        strp("fixed"),
		Value:       decp("5"),
		MinPurchase: decimal.NewNullDecimal(decimal.NewFromInt(20)),
	})
	if err != nil {
		t.Fatalf("UpdateCoupon: %v", err)
	}
	if updated.Code != "FIVE" || updated.Type != models.CouponTypeFixed {
		t.Fatalf("updated = %+v", updated)
	}
	if !updated.MinPurchase.Valid || !updated.MinPurchase.Decimal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("min purchase = %+v", updated.MinPurchase)
	}

	if _, err := CreateCoupon(db, validInput("OTHER")); err != nil {
		t.Fatal(err)
	}
	if _, err := UpdateCoupon(db, coupon.ID, CouponInput{Code: strp("OTHER")}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("rename onto existing code: err = %v, want conflict", err)
	}
	if _, err := UpdateCoupon(db, 9999, CouponInput{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown coupon: err = %v, want not found", err)
	}

	if err := DeleteCoupon(db, coupon.ID); err != nil {
		t.Fatalf("DeleteCoupon: %v", err)
	}
	if _, err := GetCoupon(db, coupon.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("after delete: err = %v, want not found", err)
	}
	if err := DeleteCoupon(db, coupon.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete: err = %v, want not found", err)
	}
}

func TestCouponHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)

	r := gin.New()
	r.POST("/coupons", CreateCouponHandler(db))
	r.GET("/coupons", ListCouponsHandler(db))
	r.DELETE("/coupons/:coupon", DeleteCouponHandler(db))

	body := `{"code":"WELCOME","type":"fixed","value":"10","expires_at":"2099-01-01T00:00:00Z","min_purchase":"50"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/coupons", strings.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/coupons", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"WELCOME"`) {
		t.Fatalf("list status = %d, body %s", w.Code, w.Body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/coupons/abc", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("delete bad id status = %d", w.Code)
	}
}
