package entity

import "time"

// Session is a server-side session record. Only the HMAC digest of the
// client token is ever stored; the plaintext token lives in the cookie.
type Session struct {
	TokenHash string     `json:"-"`
	UserID    string     `json:"user_id"`
	Remember  bool       `json:"remember"`
	IPAddress string     `json:"ip_address"`
	UserAgent string     `json:"user_agent"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"-"`
}

// ActiveAt reports whether the session is usable at the given instant.
func (s Session) ActiveAt(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}
