// Package metrics provides Prometheus instrumentation for the QC analytics
// service.
//
// All metrics are prefixed with "qc_analytics_" and registered with the
// default registry through promauto.
//
// # Metric Categories
//
// HTTP:
//   - HTTPRequestsTotal: Counter of requests by method, path and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of requests being processed
//
// Database:
//   - DBQueryTotal: Counter of queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBConnectionsOpen: Gauge of open pool connections
//   - DBSizeBytes: Gauge of database file sizes (main, WAL, SHM)
//
// Commands:
//   - CommandsTotal: Counter by command and status (success, invalid, error)
//   - CommandDuration: Histogram of command duration
//
// QC data, refreshed by the [Collector]:
//   - QCSessionsTotal, QCOpenSessions
//   - QCRecordsTotal, QCActiveRecords
//   - QCSettingsTotal
//
// Files and events:
//   - FilesCopiedTotal: Counter of organize copies by category and status
//   - FilesystemRetry*: NFS stale handle retry counters and durations
//   - EventsPublishedTotal, EventClientsConnected, EventClientsDropped
//
// # Collector
//
//	collector := metrics.NewCollector(db, db.Path(), time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Command error rate:
//
//	sum(rate(qc_analytics_commands_total{status="error"}[5m])) / sum(rate(qc_analytics_commands_total[5m]))
//
// Share of records counted by analytics:
//
//	qc_analytics_records_active / qc_analytics_records_total
//
// P95 save latency:
//
//	histogram_quantile(0.95, sum(rate(qc_analytics_db_query_duration_seconds_bucket{operation="save_qc_record"}[5m])) by (le))
package metrics
