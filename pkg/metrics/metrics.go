package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrderMetrics counts the order workflow outcomes worth alerting on.
type OrderMetrics struct {
	OrdersCreated     prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	StockRejections   prometheus.Counter
}

// NewOrderMetrics builds and registers the order collectors on reg.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Total number of orders successfully placed.",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: "orders",
			Name:      "status_transitions_total",
			Help:      "Total number of order status transitions by target status.",
		}, []string{"status"}),
		StockRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oms",
			Subsystem: "orders",
			Name:      "insufficient_stock_total",
			Help:      "Total number of order placements rejected for insufficient stock.",
		}),
	}
	reg.MustRegister(m.OrdersCreated, m.StatusTransitions, m.StockRejections)
	return m
}

// Handler returns the scrape endpoint for the given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
