// Package metrics defines the Prometheus metrics emitted by the shop-admin
// client layer. It is the single source of truth for metric names, labels and
// help strings; collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopadmin"

// Outcome labels for ClientRequestsTotal.
const (
	OutcomeOK            = "ok"
	OutcomeStatus        = "status_error"
	OutcomeTransport     = "transport_error"
	OutcomeUnauthorized  = "unauthorized"
	OutcomeRetried       = "retried"
	OutcomeRefreshFailed = "refresh_failed"
)

// ── Facade metrics ───────────────────────────────────────────────────────────

// ClientRequestsTotal counts attempts made by the request facade.
// Labels:
//   - method: HTTP method
//   - outcome: ok, status_error, transport_error, unauthorized, retried, refresh_failed
var ClientRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Total number of API request attempts, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// ClientRequestDuration measures a single round trip to the API.
var ClientRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Duration of API round trips.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Session metrics ──────────────────────────────────────────────────────────

// SessionRefreshTotal counts token refresh exchanges.
// Label:
//   - result: "success" or "failure"
var SessionRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "refresh_total",
		Help:      "Total number of access token refresh exchanges, by result.",
	},
	[]string{"result"},
)

// SessionTransitionsTotal counts session state changes.
// Label:
//   - state: the state entered ("authenticated" or "anonymous")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "transitions_total",
		Help:      "Total number of session state transitions, by entered state.",
	},
	[]string{"state"},
)
