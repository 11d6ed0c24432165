package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal *prometheus.CounterVec

	// Engagement metrics, labelled by kind (like, reaction, comment, view,
	// share) and result (created, duplicate, removed, error)
	EngagementEventsTotal *prometheus.CounterVec

	// Moderation metrics
	ModerationActionsTotal *prometheus.CounterVec

	// Content metrics
	StoriesPublishedTotal     prometheus.Counter
	NotificationFailuresTotal *prometheus.CounterVec
	SecondaryStepFailures     *prometheus.CounterVec

	// Analytics metrics
	RollupRunsTotal   *prometheus.CounterVec
	RollupRowsUpdated prometheus.Counter
	RollupDuration    prometheus.Histogram

	// Report metrics
	ReportGenerationDuration *prometheus.HistogramVec
	ReportPages              prometheus.Histogram
	ReportsTotal             *prometheus.CounterVec

	// Live connections
	WebsocketConnections prometheus.Gauge

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of in-flight HTTP requests",
				},
				[]string{"method", "path"},
			),
			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache"},
			),
			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the rate limiter",
				},
				[]string{"path"},
			),
			EngagementEventsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "engagement_events_total",
					Help: "Engagement writes by kind and result",
				},
				[]string{"kind", "result"},
			),
			ModerationActionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "moderation_actions_total",
					Help: "Moderation transitions by action and entity type",
				},
				[]string{"action", "entity_type"},
			),
			StoriesPublishedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "stories_published_total",
					Help: "Stories published for the first time",
				},
			),
			NotificationFailuresTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notification_failures_total",
					Help: "Notification deliveries that failed and were skipped",
				},
				[]string{"event"},
			),
			SecondaryStepFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "content_secondary_step_failures_total",
					Help: "Attachment steps that failed after the primary story mutation",
				},
				[]string{"step"},
			),
			RollupRunsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "analytics_rollup_runs_total",
					Help: "Analytics rollup runs by result",
				},
				[]string{"result"},
			),
			RollupRowsUpdated: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "analytics_rollup_rows_total",
					Help: "Analytics rows written by the rollup",
				},
			),
			RollupDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "analytics_rollup_duration_seconds",
					Help:    "Duration of a single-day rollup",
					Buckets: prometheus.DefBuckets,
				},
			),
			ReportGenerationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "report_generation_duration_seconds",
					Help:    "Time to build and render a donor report",
					Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
				},
				[]string{"template"},
			),
			ReportPages: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "report_pages",
					Help:    "Pages per generated report",
					Buckets: []float64{2, 3, 4, 5, 6, 8, 10},
				},
			),
			ReportsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reports_generated_total",
					Help: "Report generation attempts by template and result",
				},
				[]string{"template", "result"},
			),
			WebsocketConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "websocket_connections",
					Help: "Open live story connections",
				},
			),
			ErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Errors by component and code",
				},
				[]string{"component", "code"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance, initializing it on first use
func Get() *Metrics {
	return Initialize()
}
