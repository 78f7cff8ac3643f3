package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	InteractionsApplied *prometheus.CounterVec
	TablesCreated       prometheus.Counter

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec
	ConsumedRCU     prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Each collector gets its own registry so tests can build several
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	interactionsApplied := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_applied_total",
			Help:      "Sum of interaction increments applied, by counter",
		},
		[]string{"counter"},
	)

	tablesCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_created_total",
			Help:      "Number of tables created by the bootstrapper",
		},
	)

	storeOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of store operations",
		},
		[]string{"operation", "table", "status"},
	)

	storeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	consumedRCU := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_get_consumed_capacity_total",
			Help:      "Capacity units consumed by batch gets",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		interactionsApplied,
		tablesCreated,
		storeOperations,
		storeDuration,
		consumedRCU,
	)

	return &Collector{
		registry:            registry,
		HTTPRequests:        httpRequests,
		HTTPDuration:        httpDuration,
		InteractionsApplied: interactionsApplied,
		TablesCreated:       tablesCreated,
		StoreOperations:     storeOperations,
		StoreDuration:       storeDuration,
		ConsumedRCU:         consumedRCU,
	}
}

// ObserveStoreOperation records the outcome and latency of one store call
func (c *Collector) ObserveStoreOperation(operation, table string, started time.Time, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.StoreOperations.WithLabelValues(operation, table, status).Inc()
	c.StoreDuration.WithLabelValues(operation, table).Observe(time.Since(started).Seconds())
}

// RecordInteraction adds applied increments to the per-counter totals
func (c *Collector) RecordInteraction(thumbsUp, thumbsDown, neutral int64) {
	if c == nil {
		return
	}
	c.InteractionsApplied.WithLabelValues("thumbsUp").Add(float64(thumbsUp))
	c.InteractionsApplied.WithLabelValues("thumbsDown").Add(float64(thumbsDown))
	c.InteractionsApplied.WithLabelValues("neutral").Add(float64(neutral))
}

// RecordTableCreated counts a table created during bootstrap
func (c *Collector) RecordTableCreated() {
	if c == nil {
		return
	}
	c.TablesCreated.Inc()
}

// RecordConsumedCapacity adds capacity units reported by the store
func (c *Collector) RecordConsumedCapacity(units float64) {
	if c == nil || units <= 0 {
		return
	}
	c.ConsumedRCU.Add(units)
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the collector's registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
