package session

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CookieName is the session cookie. Part of the wire contract.
const CookieName = "auth_sid"

const (
	defaultTTL  = 12 * time.Hour
	rememberTTL = 30 * 24 * time.Hour
)

// Manager wraps a Store with token generation, TTL policy and cookie I/O.
type Manager struct {
	store       Store
	ttl         time.Duration
	rememberTTL time.Duration
}

// ManagerOptions override the TTL policy. Zero values keep the defaults
// (12h, or 30 days for remember-me sessions).
type ManagerOptions struct {
	TTL         time.Duration
	RememberTTL time.Duration
}

func NewManager(store Store, opts ManagerOptions) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.RememberTTL <= 0 {
		opts.RememberTTL = rememberTTL
	}
	return &Manager{store: store, ttl: opts.TTL, rememberTTL: opts.RememberTTL}
}

// TTL returns the session lifetime for the given remember policy.
func (m *Manager) TTL(remember bool) time.Duration {
	if remember {
		return m.rememberTTL
	}
	return m.ttl
}

// StartOptions carries per-login attributes for Start.
type StartOptions struct {
	Remember  bool
	IPAddress string
	UserAgent string

	// RotatedFrom revokes the given prior token atomically with the
	// insert. Used for session fixation defense on login.
	RotatedFrom string
}

// Start creates a new session for the user and returns the plaintext token.
// The token is never persisted; callers hand it to SetCookie.
func (m *Manager) Start(ctx context.Context, userID string, opts StartOptions) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	err = m.store.Insert(ctx, token, InsertParams{
		UserID:      userID,
		ExpiresAt:   time.Now().UTC().Add(m.TTL(opts.Remember)),
		Remember:    opts.Remember,
		IPAddress:   opts.IPAddress,
		UserAgent:   opts.UserAgent,
		RotatedFrom: opts.RotatedFrom,
	})
	if err != nil {
		return "", fmt.Errorf("session: start: %w", err)
	}
	return token, nil
}

// SetCookie issues the session cookie. The Secure flag must reflect whether
// the request arrived over TLS; it is never hardcoded here.
func (m *Manager) SetCookie(w http.ResponseWriter, token string, remember bool, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.TTL(remember).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie from the client.
func (m *Manager) ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RevokeAllForUser revokes every active session for the user. Used on
// password change so stolen sessions die with the old credential.
func (m *Manager) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	return m.store.RevokeAllForUser(ctx, userID)
}

// TokenFromRequest reads the session token from the request cookie.
func TokenFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Logout revokes the presented session and clears the cookie. A store
// failure surfaces to the caller; logout must not silently succeed. An
// absent or already-revoked session is not an error.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request, secure bool) error {
	token, ok := TokenFromRequest(r)
	if ok {
		if _, err := m.store.Revoke(ctx, token); err != nil {
			return fmt.Errorf("session: logout: %w", err)
		}
	}
	m.ClearCookie(w, secure)
	return nil
}
