package httpx

import (
	"context"
	"net/http"

	"authcore/internal/entity"
)

type contextKey string

const (
	userKey      contextKey = "user"
	csrfTokenKey contextKey = "csrfToken"
	requestIDKey contextKey = "requestID"
)

// ContextWithUser attaches the resolved identity to the context.
func ContextWithUser(ctx context.Context, user *entity.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the resolved identity, or nil for anonymous requests.
func UserFrom(r *http.Request) *entity.User {
	if u, ok := r.Context().Value(userKey).(*entity.User); ok {
		return u
	}
	return nil
}

func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey, token)
}

// CSRFTokenFrom returns the unsigned CSRF token for the request, for
// embedding in forms or response headers.
func CSRFTokenFrom(r *http.Request) string {
	if t, ok := r.Context().Value(csrfTokenKey).(string); ok {
		return t
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
