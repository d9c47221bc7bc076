// Package api implements the FireCAD HTTP REST API.
//
// This package provides:
//   - Drawing upload and analysis (multipart), archived and published
//   - Read access to archived analyses and their XLSX device schedules
//   - Layer classification and visual cross-check endpoints
//   - Middleware stack (request ID, logging, metrics, recovery, CORS)
//   - TLS support for production deployments
//
// # Graceful Degradation
//
// The archive is optional. Without it, uploads are still analysed and
// returned, but the analyses collection answers 503.
package api
