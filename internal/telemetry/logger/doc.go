// Package logger provides structured logging for warmd.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, handler selection, dynamic level
//   - context.go: context propagation of the logger and request ids
//   - truncate.go: payload truncation so request lines never flood logs
//
// Logging is fire-and-forget: no method returns an error and handler write
// failures are dropped by slog.
package logger
