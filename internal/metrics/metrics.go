package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mantém um registry privado; nada vai para o registry global.
type Metrics struct {
	reqTotal   *prometheus.CounterVec
	reqLatency *prometheus.HistogramVec

	quotesApproved prometheus.Counter
	ordersFinished prometheus.Counter
	stockMoves     *prometheus.CounterVec

	registry *prometheus.Registry
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		reqTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		reqLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		quotesApproved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotes_approved_total",
			Help: "Quotes approved and converted into service orders",
		}),
		ordersFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "service_orders_finished_total",
			Help: "Service orders finished",
		}),
		stockMoves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_movements_total",
				Help: "Stock movements written, by type",
			},
			[]string{"tipo"},
		),
		registry: registry,
	}

	registry.MustRegister(m.reqTotal, m.reqLatency, m.quotesApproved, m.ordersFinished, m.stockMoves)
	return m
}

// Middleware usa o padrão da rota do gin como label, para não explodir a
// cardinalidade com ids.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.reqTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.reqLatency.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Os contadores de domínio aceitam receptor nil para os handlers não
// precisarem checar se métricas estão ligadas.

func (m *Metrics) QuoteApproved() {
	if m != nil {
		m.quotesApproved.Inc()
	}
}

func (m *Metrics) OrderFinished() {
	if m != nil {
		m.ordersFinished.Inc()
	}
}

func (m *Metrics) StockMovement(tipo string) {
	if m != nil {
		m.stockMoves.WithLabelValues(tipo).Inc()
	}
}
