// Package metrics defines and registers all custom Prometheus metrics for the
// Sweet Shop API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation via promauto.
package metrics

import (
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sweetshop"

// ── Inventory metrics ─────────────────────────────────────────────────────────

// StockChangesTotal counts purchase and restock attempts.
// Labels:
//   - kind: "purchase" or "restock"
//   - result: "ok", "replayed", "insufficient_stock", "not_found", "invalid_quantity", "conflict", "denied" or "error"
var StockChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_changes_total",
		Help:      "Total number of purchase and restock attempts, by outcome.",
	},
	[]string{"kind", "result"},
)

// UnitsMovedTotal counts units sold or restocked.
// Labels:
//   - kind: "purchase" or "restock"
//   - category: the sweet's category
var UnitsMovedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_moved_total",
		Help:      "Total number of stock units purchased or restocked, by category.",
	},
	[]string{"kind", "category"},
)

// SoldOutTotal counts purchases that brought a sweet's stock to zero.
var SoldOutTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sold_out_total",
		Help:      "Total number of purchases that left a sweet out of stock.",
	},
)

// IdempotencyChecksTotal counts idempotency key decisions.
// Label:
//   - result: "hit" (replayed), "miss" (executed) or "conflict" (rejected with 409)
var IdempotencyChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_checks_total",
		Help:      "Total number of idempotency key checks, labelled by result.",
	},
	[]string{"result"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthEventsTotal counts authentication outcomes.
// Labels:
//   - event: "register", "login" or "token"
//   - result: "ok" or a short failure reason (e.g. "invalid_credentials", "duplicate_email")
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of authentication events, by outcome.",
	},
	[]string{"event", "result"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// httpMetrics registers the request counters and histograms once, so routers
// built repeatedly in one process share them. Names are prefixed
// sweetshop_http_, e.g. sweetshop_http_request_duration_seconds.
var httpMetrics = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: namespace,
		Subsystem: "http",
	})
})

// Middleware records request count, latency and sizes by route template.
// Errors are rendered before the observation so the code label matches the
// response instead of defaulting to 500.
func Middleware() echo.MiddlewareFunc {
	observe := httpMetrics()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return observe(func(c echo.Context) error {
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			return err
		})
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() echo.HandlerFunc {
	return echoprometheus.NewHandler()
}
