package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("quantity must be at least %d", 1), http.StatusBadRequest},
		{InvalidState("Cart is empty"), http.StatusBadRequest},
		{NotFound("order"), http.StatusNotFound},
		{Forbidden("not yours"), http.StatusForbidden},
		{Unauthorized("Unauthorized"), http.StatusForbidden},
		{Conflict("email already registered"), http.StatusConflict},
		{TransactionFailure("Order creation failed", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("loading: %w", NotFound("cart"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped error to match ErrNotFound")
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatalf("did not expect wrapped error to match ErrForbidden")
	}
}

func TestRespondHidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/orders", nil)

	Respond(c, TransactionFailure("Order creation failed", errors.New("pq: duplicate key secret_table")))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Order creation failed") {
		t.Errorf("expected generic message, got %s", body)
	}
	if strings.Contains(body, "secret_table") {
		t.Errorf("internal detail leaked: %s", body)
	}
}
