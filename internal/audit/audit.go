// Package audit emits structured security event log lines. Events carry
// identifiers and outcomes only; tokens, passwords and digests are never
// logged.
package audit

import "log"

type Event string

const (
	LoginSuccess    Event = "login_success"
	LoginFailure    Event = "login_failure"
	Logout          Event = "logout"
	SessionCreated  Event = "session_created"
	SessionRevoked  Event = "session_revoked"
	AccountCreated  Event = "account_created"
	PasswordChanged Event = "password_changed"
	CSRFRejected    Event = "csrf_rejected"
	RateLimited     Event = "rate_limited"
)

// Record carries the actor attributes of a security event. Zero fields are
// logged as empty rather than omitted, keeping lines grep-friendly.
type Record struct {
	UserID    string
	Email     string
	IP        string
	UserAgent string
	Detail    string
}

func Log(event Event, rec Record) {
	log.Printf("security event=%s user_id=%s email=%s ip=%s user_agent=%q detail=%q",
		event, rec.UserID, rec.Email, rec.IP, rec.UserAgent, rec.Detail)
}
