// Package metrics defines the business metrics recorded by the stub API
// handlers. Request counts and latencies come from the echoprometheus
// middleware; these cover what the middleware cannot see.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopadmin_stub"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthRequestsTotal counts credential operations.
// Labels:
//   - action: register, login, refresh or logout
//   - result: "success" or "failure"
var AuthRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_requests_total",
		Help:      "Total number of credential operations, by action and result.",
	},
	[]string{"action", "result"},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// CatalogChangesTotal counts successful catalog writes.
// Labels:
//   - entity: "product" or "category"
//   - action: "create", "update" or "delete"
var CatalogChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_changes_total",
		Help:      "Total number of catalog writes, by entity and action.",
	},
	[]string{"entity", "action"},
)

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrderStatusChangesTotal counts status updates by the status applied.
var OrderStatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_changes_total",
		Help:      "Total number of order status updates, by new status.",
	},
	[]string{"status"},
)

// OrderAssignmentsTotal counts orders assigned to an operator.
var OrderAssignmentsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_assignments_total",
		Help:      "Total number of order assignments.",
	},
)

// Result returns the result label for err.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
