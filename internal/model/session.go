package model

import "time"

// Session binds a bearer token to a player until it expires.
// Sessions live in storage so they outlast a server restart.
type Session struct {
	Token     string
	PlayerID  PlayerID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the session is no longer valid at now
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Lifetime is the duration the session was issued for
func (s *Session) Lifetime() time.Duration {
	return s.ExpiresAt.Sub(s.CreatedAt)
}
