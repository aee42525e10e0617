package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	scansClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scans_classified_total",
			Help: "Total number of CT scans classified",
		},
		[]string{"label"},
	)

	reportsBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinical_reports_built_total",
			Help: "Total number of clinical reports built",
		},
		[]string{"status"},
	)

	reportBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clinical_report_build_duration_seconds",
			Help:    "Clinical report build duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	filterRetention = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clinical_filter_retention_percent",
			Help: "Row retention percentage of the last run of each clinical filter",
		},
		[]string{"filter"},
	)

	accountsRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_registered_total",
			Help: "Total number of account registrations",
		},
	)

	statsFeedFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_feed_fetches_total",
			Help: "Total number of public statistics feed fetches",
		},
		[]string{"source", "status"},
	)

	auditEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit entries created",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordScanClassified records a CT-scan classification result
func RecordScanClassified(label string) {
	scansClassified.WithLabelValues(label).Inc()
}

// RecordReportBuilt records a clinical report build
func RecordReportBuilt(status string, duration time.Duration) {
	reportsBuilt.WithLabelValues(status).Inc()
	reportBuildDuration.Observe(duration.Seconds())
}

// RecordFilterRetention records the retention percentage of a clinical filter
func RecordFilterRetention(filter string, percent float64) {
	filterRetention.WithLabelValues(filter).Set(percent)
}

// RecordAccountRegistered records an account registration
func RecordAccountRegistered() {
	accountsRegistered.Inc()
}

// RecordStatsFeedFetch records a statistics feed fetch
func RecordStatsFeedFetch(source, status string) {
	statsFeedFetches.WithLabelValues(source, status).Inc()
}

// RecordAuditEntry records an audit entry creation
func RecordAuditEntry() {
	auditEntriesTotal.Inc()
}
