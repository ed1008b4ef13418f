// Package main provides the entry point for the QC analytics service.
//
// The service persists QC review sessions and per-image review records in a
// local SQLite file and answers the analytics queries of the review UI. The
// desktop shell talks to it over HTTP on the loopback interface.
//
// # Application Lifecycle
//
//  1. Configuration Loading: YAML file (QC_CONFIG_FILE) and environment
//  2. Database Initialization: opens the store, creates or migrates the
//     schema and switches to WAL journaling
//  3. Component Initialization:
//     - Event Hub: fans change events out to WebSocket clients
//     - Metrics Collector: refreshes row-count gauges and file sizes
//     - Command Service: validates and runs the named commands
//  4. HTTP Server Setup: routes, middleware and listeners
//  5. Graceful Shutdown on SIGINT/SIGTERM
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Command Server (default 127.0.0.1:8765):
//     - POST /api/invoke/{command}: run a command, JSON in and out
//     - GET /api/commands: list command names
//     - GET /api/events: WebSocket change stream
//     - /health, /healthz, /livez, /readyz, /version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Health check endpoint (/health)
//
// # Graceful Shutdown
//
//  1. Close event stream clients
//  2. Stop accepting new HTTP requests (30s timeout)
//  3. Stop metrics collector
//  4. Shutdown metrics server (if running)
//  5. Close the database
//
// # Build Requirements
//
// CGO is required for the SQLite driver:
//
//	CGO_ENABLED=1 go build -o qc-analytics ./cmd/qc-analytics
package main
