package logging

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	operationKey contextKey = "op"
	requestIDKey contextKey = "request_id"
)

// fieldKeys lists the context values ContextHook copies onto events, in the
// order they are written.
var fieldKeys = []contextKey{sessionIDKey, operationKey, requestIDKey}

// WithSessionID tags ctx with the session the work belongs to.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithOperation tags ctx with the operation in flight: submit, chat,
// features, finalize or commit.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey, op)
}

// WithRequestID tags ctx with the id of a single generation call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetSessionID returns the session id in ctx, or "".
func GetSessionID(ctx context.Context) string { return value(ctx, sessionIDKey) }

// GetOperation returns the operation in ctx, or "".
func GetOperation(ctx context.Context) string { return value(ctx, operationKey) }

// GetRequestID returns the request id in ctx, or "".
func GetRequestID(ctx context.Context) string { return value(ctx, requestIDKey) }

func value(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}
