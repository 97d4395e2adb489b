// Package logger provides structured logging functionality for the application.
//
// It uses the standard log/slog package for structured JSON or text logs with
// configurable levels, and carries request-scoped loggers through context.
package logger
