package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddlewareCountsByRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/products/1", "/api/products/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("/api/products/:id", "GET", "200")); got != 2 {
		t.Errorf("product requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("unmatched", "GET", "404")); got != 1 {
		t.Errorf("unmatched requests = %v, want 1", got)
	}
}

func TestCheckoutOutcomeToleratesNil(t *testing.T) {
	var m *ServerMetrics
	m.CheckoutOutcome("success")

	m = NewServerMetrics(prometheus.NewRegistry())
	m.CheckoutOutcome("success")
	m.CheckoutOutcome("failed")
	m.CheckoutOutcome("success")
	if got := testutil.ToFloat64(m.Checkouts.WithLabelValues("success")); got != 2 {
		t.Errorf("success = %v, want 2", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewServerMetrics(prometheus.NewRegistry())
	m.CheckoutOutcome("success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "webnet_orders_checkouts_total") {
		t.Errorf("metrics output missing checkout counter:\n%s", rec.Body.String())
	}
}
