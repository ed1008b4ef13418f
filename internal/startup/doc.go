// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] reads an optional YAML file named by QC_CONFIG_FILE and
// overlays the following environment variables:
//
//   - QC_DATABASE_PATH: database file (default: per-user data directory)
//   - HOST: listen address of the command server (default: 127.0.0.1)
//   - PORT: command server port (default: 8765)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: enable or disable the metrics server (default: true)
//   - STATS_INTERVAL: metrics collection interval as Go duration (default: 1m)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: log health check requests (default: true)
//   - QC_COPY_WORKERS: fixed worker count for organize copies
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
// [LogDatabaseInit], [LogEventHubInit], [LogHTTPRoutes], [LogServerStarted]
// and the LogShutdown* functions print the banner-style sections seen in the
// server log.
package startup
