// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// Collector
// =============================================================================

// Collector aggregates all Prometheus instruments for helium. Each Collector
// owns its registry so construction is repeatable (tests, embedded use).
type Collector struct {
	registry *prometheus.Registry

	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Team
	taskExecutionsTotal   *prometheus.CounterVec
	taskExecutionDuration *prometheus.HistogramVec
	delegationsTotal      *prometheus.CounterVec

	// A2A
	a2aMessagesTotal  *prometheus.CounterVec
	asyncTasksPending prometheus.Gauge

	// RAG
	ragQueriesTotal   *prometheus.CounterVec
	ragQueryDuration  *prometheus.HistogramVec
	ragDocumentsTotal *prometheus.CounterVec

	// Tools
	searchRequestsTotal *prometheus.CounterVec

	// Cache
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Database
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector creates a metrics collector with its own registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	c := &Collector{
		registry: registry,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	// HTTP
	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	c.httpRequestSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)
	c.httpResponseSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// Team
	c.taskExecutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_executions_total",
			Help:      "Total number of agent task executions",
		},
		[]string{"agent_id", "intent", "status"},
	)
	c.taskExecutionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_execution_duration_seconds",
			Help:      "Agent task execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"agent_id"},
	)
	c.delegationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delegations_total",
			Help:      "Total number of tasks delegated by the team leader",
		},
		[]string{"to"},
	)

	// A2A
	c.a2aMessagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "a2a_messages_total",
			Help:      "Total number of A2A messages handled",
		},
		[]string{"type", "status"},
	)
	c.asyncTasksPending = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "a2a_async_tasks_pending",
			Help:      "Number of A2A tasks currently pending or running",
		},
	)

	// RAG
	c.ragQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rag_queries_total",
			Help:      "Total number of retrieval queries",
		},
		[]string{"collection", "status"},
	)
	c.ragQueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rag_query_duration_seconds",
			Help:      "Retrieval query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"collection"},
	)
	c.ragDocumentsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rag_documents_added_total",
			Help:      "Total number of chunks added to vector storage",
		},
		[]string{"collection"},
	)

	// Tools
	c.searchRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of web search requests",
		},
		[]string{"status"},
	)

	// Cache
	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)
	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Database
	c.dbConnectionsOpen = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)
	c.dbConnectionsIdle = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// Handler returns the Prometheus exposition handler for this collector.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional registrations.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// =============================================================================
// Recording
// =============================================================================

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// RecordTaskExecution records one agent task execution.
func (c *Collector) RecordTaskExecution(agentID, intent, status string, duration time.Duration) {
	c.taskExecutionsTotal.WithLabelValues(agentID, intent, status).Inc()
	c.taskExecutionDuration.WithLabelValues(agentID).Observe(duration.Seconds())
}

// RecordDelegation records one leader delegation.
func (c *Collector) RecordDelegation(to string) {
	c.delegationsTotal.WithLabelValues(to).Inc()
}

// RecordA2AMessage records one handled A2A message.
func (c *Collector) RecordA2AMessage(msgType, status string) {
	c.a2aMessagesTotal.WithLabelValues(msgType, status).Inc()
}

// SetAsyncTasksPending sets the pending async task gauge.
func (c *Collector) SetAsyncTasksPending(n int) {
	c.asyncTasksPending.Set(float64(n))
}

// RecordRAGQuery records one retrieval query.
func (c *Collector) RecordRAGQuery(collection, status string, duration time.Duration) {
	c.ragQueriesTotal.WithLabelValues(collection, status).Inc()
	c.ragQueryDuration.WithLabelValues(collection).Observe(duration.Seconds())
}

// RecordRAGDocuments records chunks added to a collection.
func (c *Collector) RecordRAGDocuments(collection string, n int) {
	c.ragDocumentsTotal.WithLabelValues(collection).Add(float64(n))
}

// RecordSearchRequest records one web search call.
func (c *Collector) RecordSearchRequest(status string) {
	c.searchRequestsTotal.WithLabelValues(status).Inc()
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordDBConnections records database pool gauges.
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// statusClass folds an HTTP status code into its class label.
func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
