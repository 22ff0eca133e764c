package entity

import "time"

// Session binds an opaque bearer token to an admin identity.
//
// The token itself is never stored, only its HMAC.
type Session struct {
	TokenHash string
	Identity  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// Valid reports whether the session authenticates requests at now.
func (s Session) Valid(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// SessionCheck is the answer to "is this token good?".
//
// Expired is only true for a token that was issued, not revoked, and ran past
// ExpiresAt; unknown or revoked tokens report Valid=false, Expired=false.
type SessionCheck struct {
	Valid     bool
	Identity  string
	Expired   bool
	ExpiresAt time.Time
}
