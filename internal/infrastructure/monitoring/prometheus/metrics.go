package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric family the backend records.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Public API gateway
	RateLimitDecisionsTotal CounterVec
	RateLimitStoreDuration  HistogramVec
	RateLimitStoreErrors    CounterVec
	RateLimitBucketsPurged  CounterVec
	APIKeyRejectionsTotal   CounterVec

	// Analytics
	AnalyticsRequestsTotal CounterVec
	AnalyticsDuration      HistogramVec
	AnalyticsRecordsLoaded HistogramVec
	AnalyticsExportsTotal  CounterVec

	// Infrastructure
	DBQueryDuration      HistogramVec
	EventsPublishedTotal CounterVec
	EventsConsumedTotal  CounterVec
	HealthCheckStatus    GaugeVec
	ErrorsTotal          CounterVec
}

// Default buckets.
var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultDBDurationBuckets   = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultRecordCountBuckets  = []float64{0, 10, 50, 100, 500, 1000, 5000, 10000}
)

// NewAppMetrics registers all metric families on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.Counter("http_requests_total", "Total HTTP requests", "method", "route", "status_code")
	m.HTTPRequestDuration = collector.Histogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route")
	m.HTTPActiveRequests = collector.Gauge("http_active_requests", "In-flight HTTP requests", "method")

	m.RateLimitDecisionsTotal = collector.Counter("ratelimit_decisions_total", "Rate limiter admission decisions", "result", "period")
	m.RateLimitStoreDuration = collector.Histogram("ratelimit_store_duration_seconds", "Bucket store round-trip duration", DefaultDBDurationBuckets, "backend", "operation")
	m.RateLimitStoreErrors = collector.Counter("ratelimit_store_errors_total", "Bucket store failures", "backend", "operation")
	m.RateLimitBucketsPurged = collector.Counter("ratelimit_buckets_purged_total", "Expired buckets removed by retention", "backend")
	m.APIKeyRejectionsTotal = collector.Counter("api_key_rejections_total", "Requests rejected before rate limiting", "code")

	m.AnalyticsRequestsTotal = collector.Counter("analytics_requests_total", "Analytics views computed", "view", "range", "status")
	m.AnalyticsDuration = collector.Histogram("analytics_duration_seconds", "Analytics view computation duration", DefaultHTTPDurationBuckets, "view")
	m.AnalyticsRecordsLoaded = collector.Histogram("analytics_records_loaded", "Rating records loaded per view", DefaultRecordCountBuckets, "view")
	m.AnalyticsExportsTotal = collector.Counter("analytics_exports_total", "Analytics exports produced", "format", "status")

	m.DBQueryDuration = collector.Histogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.EventsPublishedTotal = collector.Counter("events_published_total", "Events published to the message bus", "topic", "status")
	m.EventsConsumedTotal = collector.Counter("events_consumed_total", "Events consumed from the message bus", "topic", "status")
	m.HealthCheckStatus = collector.Gauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.Counter("errors_total", "Total errors", "component", "code")

	return m
}

// NewNoopAppMetrics returns AppMetrics backed by the no-op collector.
func NewNoopAppMetrics() *AppMetrics {
	return NewAppMetrics(NewNoopCollector())
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordHTTPRequest records one completed request.
func RecordHTTPRequest(m *AppMetrics, method, route string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRateLimitDecision records an admission result.  period is the
// exceeded period for rejections and "none" for admissions.
func RecordRateLimitDecision(m *AppMetrics, allowed bool, period string) {
	result := "allowed"
	if !allowed {
		result = "rejected"
	}
	if period == "" {
		period = "none"
	}
	m.RateLimitDecisionsTotal.WithLabelValues(result, period).Inc()
}

// RecordBucketStore records a bucket store round-trip.
func RecordBucketStore(m *AppMetrics, backend, operation string, duration time.Duration, err error) {
	m.RateLimitStoreDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		m.RateLimitStoreErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordAnalytics records one analytics view computation.
func RecordAnalytics(m *AppMetrics, view, rangeName string, records int, duration time.Duration, err error) {
	m.AnalyticsRequestsTotal.WithLabelValues(view, rangeName, outcome(err == nil)).Inc()
	m.AnalyticsDuration.WithLabelValues(view).Observe(duration.Seconds())
	if err == nil {
		m.AnalyticsRecordsLoaded.WithLabelValues(view).Observe(float64(records))
	}
}

// RecordDBQuery records a database query.
func RecordDBQuery(m *AppMetrics, db, operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
	if err != nil {
		m.ErrorsTotal.WithLabelValues(db, "query_error").Inc()
	}
}

// RecordEventPublished records a message bus publish.
func RecordEventPublished(m *AppMetrics, topic string, err error) {
	m.EventsPublishedTotal.WithLabelValues(topic, outcome(err == nil)).Inc()
}

// RecordEventConsumed records a message bus delivery.
func RecordEventConsumed(m *AppMetrics, topic string, err error) {
	m.EventsConsumedTotal.WithLabelValues(topic, outcome(err == nil)).Inc()
}

// RecordError records an error by component and code.
func RecordError(m *AppMetrics, component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

//Personal.AI order the ending
