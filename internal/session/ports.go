package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by GetUserID when no active session matches the
// presented token. Expired and revoked sessions are indistinguishable from
// ones that never existed.
var ErrNotFound = errors.New("session: not found")

// ErrMissingSecret is returned by store constructors when no server secret
// is provided. Tokens are stored as keyed digests, so running without a
// secret is a configuration error, never a degraded mode.
var ErrMissingSecret = errors.New("session: server secret is required")

// InsertParams carries the attributes of a new session record.
type InsertParams struct {
	UserID    string
	ExpiresAt time.Time
	Remember  bool
	IPAddress string
	UserAgent string

	// RotatedFrom, when set, is the plaintext token of the session being
	// replaced. The store revokes it as part of the same insert; a token
	// that is already revoked or unknown is ignored.
	RotatedFrom string
}

// Store is the persistence contract for session records. Implementations
// key records by the HMAC digest of the plaintext token and must never
// store the plaintext itself.
type Store interface {
	Insert(ctx context.Context, token string, p InsertParams) error

	// Revoke marks a session revoked. It reports true only on the
	// transition from active to revoked; revoking an absent or already
	// revoked session returns false with no error.
	Revoke(ctx context.Context, token string) (bool, error)

	// GetUserID resolves the owner of an active (unexpired, unrevoked)
	// session, or ErrNotFound. This is the trust boundary for all
	// identity resolution.
	GetUserID(ctx context.Context, token string) (string, error)

	// RevokeAllForUser bulk-revokes every active session owned by the
	// user and returns the number revoked.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)

	// CleanupExpired deletes expired and revoked records. Housekeeping
	// only: such sessions are already unusable.
	CleanupExpired(ctx context.Context) (int64, error)

	ActiveSessionCount(ctx context.Context) (int64, error)
}
