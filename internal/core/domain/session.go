package domain

import "time"

// DefaultSessionTTL is the session lifetime used when none is configured.
const DefaultSessionTTL = time.Hour

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "sessionid"

// Session binds an opaque token to an authenticated username.
type Session struct {
	// Token is the opaque, unguessable session identifier.
	Token string

	// Username is the identity the token was issued to.
	Username string

	// CreatedAt is when the session was issued.
	CreatedAt time.Time

	// ExpiresAt is the absolute expiry instant.
	ExpiresAt time.Time
}

// NewSession creates a session expiring ttl after now.
func NewSession(token, username string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		Token:     token,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the session has expired at now.
// A session expires at the exact ExpiresAt instant.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Extend moves the expiry to now+ttl.
func (s *Session) Extend(now time.Time, ttl time.Duration) {
	s.ExpiresAt = now.Add(ttl)
}

// Clone returns a copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
