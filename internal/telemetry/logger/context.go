package logger

import "context"

type ctxKey int

const (
	loggerKey ctxKey = iota
	scopeKey
)

// scope is the per-request identity attached to log lines.
type scope struct {
	requestID string
	user      string
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the context logger, or Default when none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID tags the context with a request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	s := scopeOf(ctx)
	s.requestID = requestID
	return context.WithValue(ctx, scopeKey, s)
}

// WithUser tags the context with the authenticated username.
func WithUser(ctx context.Context, user string) context.Context {
	s := scopeOf(ctx)
	s.user = user
	return context.WithValue(ctx, scopeKey, s)
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return scopeOf(ctx).requestID
}

// UserFromContext returns the authenticated username, or "".
func UserFromContext(ctx context.Context) string {
	return scopeOf(ctx).user
}

// L returns the context logger enriched with the request ID and user.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	s := scopeOf(ctx)
	if s.requestID != "" {
		l = l.With("request_id", s.requestID)
	}
	if s.user != "" {
		l = l.With("user", s.user)
	}
	return l
}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey).(scope)
	return s
}
