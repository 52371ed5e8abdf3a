// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to stderr (stdout is reserved for video in filter mode)
//   - Logs to the systemd journal when available
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"overlay":  "debug", // Per-module overrides
//			"pipeline": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("pipeline")
//	logger.Info("Negotiated", "width", 640)
//
// Levels can be changed while running, e.g. from a reloaded config file:
//
//	logging.SetModuleLevel("overlay", "debug")
//
// # Viewing Logs
//
//	journalctl -t recsign -f
//	journalctl -t recsign MODULE=overlay
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//	overlay = "debug"
package logging
