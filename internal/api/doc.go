// Package api implements the read-only HTTP status API for the bridge.
//
// This package provides:
//   - GET /api/v1/health: bus connectivity, version and hub mode
//   - GET /api/v1/metrics: bridge counters and Go runtime statistics
//   - Middleware stack (request ID, logging, recovery)
//
// The server is optional and binds to localhost by default. It never
// changes bridge state; sensor values are set over MQTT only.
package api
