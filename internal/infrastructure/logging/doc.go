// Package logging provides structured logging for FireCAD.
//
// It wraps log/slog so every component logs the same way:
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	analyzer.SetLogger(logger.Component("analyzer"))
//	logger.Error("archive failed", "error", err)
//
// Never log MQTT passwords or InfluxDB tokens.
package logging
