package logger

import (
	"context"

	"github.com/rs/zerolog"

	"mediafetch/pkg/models"
)

// LogRequest logs HTTP request information
func LogRequest(l Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogOutcome records the terminal result of a single candidate.
func LogOutcome(l Logger, c models.Candidate, o models.Outcome) {
	fields := map[string]interface{}{
		"message_id": c.ID,
		"file_name":  c.Name,
		"size":       c.Size,
		"outcome":    o.Kind.String(),
	}
	if o.Duration > 0 {
		fields["duration"] = o.Duration
	}
	if o.Reason != "" {
		fields["reason"] = o.Reason
	}

	switch o.Kind {
	case models.OutcomeDownloaded:
		l.InfoWithFields("Download completed", fields)
	case models.OutcomeFailed:
		l.ErrorWithFields("Download failed", fields)
	case models.OutcomeSkippedByUser, models.OutcomeInterrupted:
		l.WarnWithFields("Download cancelled", fields)
	default:
		l.DebugWithFields("Candidate skipped", fields)
	}
}

// LogSweep logs the result of a disk quota sweep.
func LogSweep(l Logger, before, after int64, deleted, failed int) {
	l.WithFields(map[string]interface{}{
		"bytes_before":  before,
		"bytes_after":   after,
		"files_deleted": deleted,
		"files_failed":  failed,
	}).Warn("Disk quota exceeded, evicted oldest files")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	l = l.WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
