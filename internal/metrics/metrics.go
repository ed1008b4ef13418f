package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_analytics_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qc_analytics_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qc_analytics_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_analytics_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qc_analytics_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qc_analytics_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qc_analytics_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Command metrics
var (
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_analytics_commands_total",
			Help: "Total number of invoked commands",
		},
		[]string{"command", "status"}, // status: "success", "invalid", "error"
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qc_analytics_command_duration_seconds",
			Help:    "Command duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"command"},
	)
)

// QC data metrics
var (
	QCSessionsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qc_analytics_sessions_total",
			Help: "Total number of QC sessions",
		},
	)

	QCOpenSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qc_analytics_sessions_open",
			Help: "Number of QC sessions without an end time",
		},
	)

	QCRecordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qc_analytics_records_total",
			Help: "Total number of QC records",
		},
	)

	QCActiveRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qc_analytics_records_active",
			Help: "Number of QC records counted by analytics (time spent within threshold)",
		},
	)

	QCSettingsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qc_analytics_settings_total",
			Help: "Number of stored application settings",
		},
	)
)

// File organization metrics
var (
	FilesCopiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_analytics_files_copied_total",
			Help: "Total number of files copied by organize runs",
		},
		[]string{"category", "status"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_analytics_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after a stale file handle",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_analytics_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_analytics_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_analytics_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qc_analytics_filesystem_retry_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation"},
	)
)

// Event hub metrics
var (
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_analytics_events_published_total",
			Help: "Total number of change events published",
		},
		[]string{"type"},
	)

	EventClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qc_analytics_event_clients_connected",
			Help: "Number of connected event stream clients",
		},
	)

	EventClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qc_analytics_event_clients_dropped_total",
			Help: "Total number of event clients dropped for falling behind",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qc_analytics_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
