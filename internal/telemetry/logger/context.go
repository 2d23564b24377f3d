package logger

import "context"

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	// loggerKey is the context key for the logger.
	loggerKey contextKey = "warmd.logger"
	// requestIDKey is the context key for request ID.
	requestIDKey contextKey = "warmd.request_id"
	// sessionIDKey is the context key for the session context ID.
	sessionIDKey contextKey = "warmd.session_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID uint64) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
// The second result is false if no request ID is set.
func RequestIDFromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(requestIDKey).(uint64)
	return id, ok
}

// WithSessionID adds a session context ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext extracts the session context ID from context.
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// L is a shorthand for FromContext that also enriches the logger
// with request ID and session ID from the context.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)

	if reqID, ok := RequestIDFromContext(ctx); ok {
		l = l.With("request_id", reqID)
	}

	if sessionID := SessionIDFromContext(ctx); sessionID != "" {
		l = l.With("session_id", sessionID)
	}

	return l
}
