package logger

import (
	"log/slog"
	"os"
)

// Log is the process-wide logger instance
var Log *slog.Logger

// Setup initializes the global logger. Production emits JSON at info level;
// everything else gets human-readable text with debug enabled.
func Setup(env string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

// Info logs an info message with optional key-value attributes
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Error logs an error message with optional key-value attributes
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

// Debug logs a debug message with optional key-value attributes
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Warn logs a warning message with optional key-value attributes
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}
