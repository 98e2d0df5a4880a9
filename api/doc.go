// Package api provides the request and response types for the GuardFlow
// HTTP API.
//
// # API Overview
//
// GuardFlow exposes a small RESTful API:
//   - POST /api/v1/inspect submits a payload to the trust boundary
//     pipeline and returns the assembled verdict
//   - GET /health, /healthz, /ready for health monitoring
//   - GET /metrics for Prometheus scraping (on the metrics port)
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
package api
