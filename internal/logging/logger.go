package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"sshfan/internal/target"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelError LogLevel = "error"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// Config holds logging configuration
type Config struct {
	Level  LogLevel  // Minimum log level to output
	Format LogFormat // Output format (json or text)
	Output io.Writer // Output destination (defaults to stderr)
	Quiet  bool      // If true, suppress non-error output
}

// Logger wraps slog.Logger for diagnostic output. Remote session output
// never goes through here; it is written raw to the console/log tee.
type Logger struct {
	logger *slog.Logger
	config Config
}

// NewLogger creates a new logger instance
func NewLogger(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: convertLogLevel(config.Level),
	}

	var handler slog.Handler
	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(config.Output, opts)
	default:
		handler = slog.NewTextHandler(config.Output, opts)
	}

	return &Logger{
		logger: slog.New(handler),
		config: config,
	}
}

// convertLogLevel converts our LogLevel to slog.Level
func convertLogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Info logs an informational message
func (l *Logger) Info(msg string, args ...any) {
	if l.config.Quiet {
		return // Suppress non-error output in quiet mode
	}
	l.logger.Info(msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// LogDispatchStart logs the start of a dispatch run
func (l *Logger) LogDispatchStart(hostCount int, parallel int, transport string) {
	l.Info("dispatch started",
		"host_count", hostCount,
		"parallel", parallel,
		"transport", transport,
	)
}

// LogDispatchComplete logs the completion of a dispatch run
func (l *Logger) LogDispatchComplete(hostCount, successCount, failureCount int, duration time.Duration) {
	l.Info("dispatch completed",
		"host_count", hostCount,
		"success_count", successCount,
		"failure_count", failureCount,
		"total_duration_ms", duration.Milliseconds(),
	)
}

// LogHostResult logs the outcome of a single host session
func (l *Logger) LogHostResult(t target.Target, exitCode int, duration time.Duration) {
	l.Info("session finished",
		"host", t.Host,
		"user", t.User,
		"exit_code", exitCode,
		"duration_ms", duration.Milliseconds(),
		// Note: never log the remote command or any credential material
	)
}

// LogHostError logs a per-host transport failure
func (l *Logger) LogHostError(t target.Target, err error, errType string) {
	l.Error("session failed",
		"host", t.Host,
		"user", t.User,
		"error", err.Error(),
		"error_type", errType,
	)
}

// LogConnectionWarning logs security warnings for connections
func (l *Logger) LogConnectionWarning(hostname string, message string) {
	l.logger.Warn("connection security warning",
		"host", hostname,
		"warning", message,
	)
}

// LogConfigLoad logs configuration loading events
func (l *Logger) LogConfigLoad(source string) {
	l.Info("configuration loaded",
		"source", source,
	)
}
