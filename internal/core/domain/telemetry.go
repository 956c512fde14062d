package domain

import "log/slog"

// LogLevel is the severity of a message recorded on a telemetry vertex.
// The values match log/slog so vertex logs and the logger agree on ordering.
type LogLevel slog.Level

// Vertex log levels.
const (
	LogLevelDebug = LogLevel(slog.LevelDebug)
	LogLevelInfo  = LogLevel(slog.LevelInfo)
	LogLevelWarn  = LogLevel(slog.LevelWarn)
	LogLevelError = LogLevel(slog.LevelError)
)

// String returns the upper-case level name, e.g. "WARN".
func (l LogLevel) String() string {
	return slog.Level(l).String()
}
