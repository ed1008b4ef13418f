// Package handlers provides the HTTP endpoints of the QC analytics service.
//
// It includes handlers for:
//   - Command invocation (POST /api/invoke/{command})
//   - The change event stream (GET /api/events, WebSocket)
//   - Health, liveness and readiness probes
//   - Version information and Prometheus metrics
package handlers
