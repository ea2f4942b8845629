// Package telemetry holds the structured logger setup and the Prometheus
// metrics of the service.  Metrics register against the default registry
// and are served on GET /metrics.
//
// HTTP metrics are labelled by echo's route template, never the raw URL,
// so ids in paths do not blow up label cardinality.
package telemetry

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

// OperationsTotal counts coordinator outcomes.  outcome is "ok" or the
// failure kind (VALIDATION_ERROR, NOT_FOUND, CONFLICT, UNAUTHORIZED,
// INTERNAL).
//
//	sum by (entity) (rate(entity_operations_total{outcome="INTERNAL"}[5m]))
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "entity_operations_total",
		Help: "Total number of entity operations, by entity, operation and outcome.",
	},
	[]string{"entity", "operation", "outcome"},
)

// AlertsTotal counts operational alerts by delivery route: queued,
// direct, skipped (environment not alerting) or failed.
var AlertsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "operational_alerts_total",
		Help: "Total number of operational alerts, by delivery route.",
	},
	[]string{"route"},
)

// RateLimitedTotal counts requests rejected by the rate limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Total number of requests rejected by the rate limiter.",
	},
)

// CacheLookupsTotal counts response cache lookups by result (hit, miss).
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "response_cache_lookups_total",
		Help: "Total number of response cache lookups, by result.",
	},
	[]string{"result"},
)

// DBOpenConnections is sampled by StartDBStatsCollector.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector samples the pool every interval until ctx ends.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				DBOpenConnections.Set(float64(db.Stats().OpenConnections))
				slog.Debug("db pool sampled", "open", db.Stats().OpenConnections)
			}
		}
	}()
}
