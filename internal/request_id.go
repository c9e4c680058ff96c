package internal

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "requestID"

const headerRequestID = "X-Request-Id"

// GenerateRequestID creates a unique request identifier.
func GenerateRequestID() string {
	return uuid.NewString()
}

// WithRequestID adds a request ID to the context.
// If the context already has a request ID, it returns the context unchanged.
func WithRequestID(ctx context.Context) context.Context {
	return WithRequestIDValue(ctx, "")
}

// WithRequestIDValue stores id, or a generated one when id is empty.
func WithRequestIDValue(ctx context.Context, id string) context.Context {
	if _, ok := ctx.Value(requestIDKey).(string); ok {
		return ctx
	}
	if id == "" || len(id) > 64 {
		id = GenerateRequestID()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if no request ID is present.
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		return reqID
	}
	return ""
}
