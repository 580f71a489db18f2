package httpx

import (
	"context"
	"errors"
	"log"
	"net/http"

	"authcore/internal/entity"
	"authcore/internal/session"
	"authcore/internal/store"
)

// UserGetter is the slice of the user repository that identity resolution
// needs.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (entity.User, error)
}

// SessionAuth resolves the request identity from the session cookie and
// attaches it to the context. Missing, expired, revoked and dangling
// sessions all resolve to anonymous; lookup failures also degrade to
// anonymous so public routes stay available when the store is down.
func SessionAuth(sessions session.Store, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := resolveUser(r, sessions, users); user != nil {
				r = r.WithContext(ContextWithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveUser(r *http.Request, sessions session.Store, users UserGetter) *entity.User {
	token, ok := session.TokenFromRequest(r)
	if !ok {
		return nil
	}

	userID, err := sessions.GetUserID(r.Context(), token)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Printf("auth resolve: session lookup failed: request_id=%s error=%v", RequestIDFrom(r), err)
		}
		return nil
	}

	user, err := users.GetByID(r.Context(), userID)
	if err != nil {
		// The user repository is the source of truth; a session whose
		// owner is gone resolves to anonymous.
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("auth resolve: user lookup failed: request_id=%s error=%v", RequestIDFrom(r), err)
		}
		return nil
	}
	if !user.IsActive {
		return nil
	}
	return &user
}
