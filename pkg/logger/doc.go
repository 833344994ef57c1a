// Package logger provides the structured logging interface used across mediafetch.
//
// It wraps zerolog and adds:
//   - colored console output on stderr, optionally quieter than the file sink
//   - size-based file rotation through lumberjack
//   - a global instance for commands that do not thread a Logger through
//   - a capturing TestLogger and a no-op logger for tests
//
// Basic usage:
//
//	err := logger.Initialize(&config.LoggingConfig{
//	    Level: "info",
//	    File:  "logs/mediafetch.log",
//	})
//
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Checkpoint loaded", map[string]interface{}{
//	    "last_id":   cp.LastID,
//	    "processed": cp.Len(),
//	})
package logger
