package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	m.QuoteApproved()
	m.StockMovement("ENTRADA")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/ping/:id",status="200"} 1`)
	assert.Contains(t, body, "http_request_duration_seconds")
	assert.Contains(t, body, "quotes_approved_total 1")
	assert.Contains(t, body, `stock_movements_total{tipo="ENTRADA"} 1`)
}

func TestNilMetricsCountersAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.QuoteApproved()
		m.OrderFinished()
		m.StockMovement("SAIDA")
	})
}
