// Package requestid propagates a per-request correlation ID through the
// context, the X-Request-ID response header and the logs.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDKey    contextKey = "request_id"
	RequestIDHeader            = "X-Request-ID"

	// maxLength bounds client-supplied IDs before they reach the logs.
	maxLength = 128
)

// FromContext returns "" when ctx carries no request ID.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// New returns a fresh random ID, for work that does not start from a request.
func New() string {
	return uuid.NewString()
}

// Middleware reuses a well-formed incoming X-Request-ID or generates a UUID,
// then stores it in the context and echoes it in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !valid(requestID) {
			requestID = New()
		}
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
	})
}

// valid accepts up to maxLength characters from [A-Za-z0-9._-].
func valid(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
