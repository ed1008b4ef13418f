// Package middleware provides HTTP middleware for the QC analytics command
// server.
//
// It includes:
//   - Request IDs (X-Request-ID) propagated into the request context
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labeled by route template
//   - gzip compression of large JSON responses
//
// The logging and metrics writers support hijacking so the event stream can
// upgrade to a WebSocket through them.
package middleware
