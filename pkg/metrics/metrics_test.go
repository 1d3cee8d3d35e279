package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/reports", "200"))
	RecordAPIRequest("GET", "/api/reports", 200, 5*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/reports", "200"))

	if after-before != 1 {
		t.Errorf("counter delta = %v, want 1", after-before)
	}
}

func TestRecordFileOperation(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"success", nil, "ok"},
		{"failure", errors.New("disk full"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FileOperationsTotal.WithLabelValues("remove", tt.outcome)
			before := testutil.ToFloat64(c)
			RecordFileOperation("remove", tt.err)
			if testutil.ToFloat64(c)-before != 1 {
				t.Errorf("outcome %s not counted", tt.outcome)
			}
		})
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/reports/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	c := APIRequestsTotal.WithLabelValues("GET", "/api/reports/:id", "204")
	before := testutil.ToFloat64(c)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/42", nil))

	if testutil.ToFloat64(c)-before != 1 {
		t.Error("request not recorded under route pattern")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordAPIRequest("GET", "/health", 200, time.Millisecond)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(w.Body.String(), "portal_api_requests_total") {
		t.Error("metrics output missing portal_api_requests_total")
	}
}
