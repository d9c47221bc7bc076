// Package config loads FireCAD settings.
//
// Settings are resolved in three steps: built-in defaults, then the YAML
// file named by --config or FIRECAD_CONFIG (optional), then FIRECAD_*
// environment variables. Validate runs last and reports every problem at
// once.
//
// The analysis section bounds the work a single drawing may cause
// (max_file_size_mb, timeout_seconds) and controls what happens to each
// outcome afterwards (archive_results, publish_results, inbox_dir).
//
// Keep the MQTT password and InfluxDB token out of the file; use
// FIRECAD_MQTT_PASSWORD and FIRECAD_INFLUXDB_TOKEN.
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return fmt.Errorf("loading config: %w", err)
//	}
//	limit := cfg.MaxFileSizeBytes()
package config
