package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with domain context
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new JSON logger
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ResolutionLogger logs a nomination resolution transition
func (l *Logger) ResolutionLogger(nominationID, scope string, status string, matchedNPI string, confidence float64) {
	l.Info("Nomination Resolved",
		"nomination_id", nominationID,
		"scope", scope,
		"status", status,
		"matched_npi", matchedNPI,
		"confidence", confidence,
	)
}

// SuggestionLogger logs a suggestion engine run
func (l *Logger) SuggestionLogger(nominationID string, poolSize, returned int, duration time.Duration, cacheHit bool) {
	l.Info("Suggestions Computed",
		"nomination_id", nominationID,
		"pool_size", poolSize,
		"returned", returned,
		"duration_ms", duration.Milliseconds(),
		"cache_hit", cacheHit,
	)
}

// BatchLogger logs a batch operation outcome
func (l *Logger) BatchLogger(operation, scope string, processed, updated int, duration time.Duration) {
	l.Info("Batch Operation Completed",
		"operation", operation,
		"scope", scope,
		"processed", processed,
		"updated", updated,
		"duration_ms", duration.Milliseconds(),
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	l.Logger = slog.New(handler)
}

var startTime = time.Now()
