package uid

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultTokenBytes is the entropy of tokens produced by NewSecureToken(0).
const DefaultTokenBytes = 32

// minTokenBytes keeps tokens at or above 128 bits of entropy.
const minTokenBytes = 16

// SecureToken generates unguessable opaque tokens from crypto/rand.
//
// Tokens carry no structure: no timestamp, node or counter bits. Callers must
// look them up in their own store to learn anything about them.
type SecureToken struct {
	size int
}

// NewSecureToken returns a generator producing tokens of size random bytes.
// Sizes below 16 bytes fall back to DefaultTokenBytes.
func NewSecureToken(size int) *SecureToken {
	if size < minTokenBytes {
		size = DefaultTokenBytes
	}

	return &SecureToken{size: size}
}

// Generate returns a base64url (unpadded) encoded random token.
func (g *SecureToken) Generate() string {
	raw := make([]byte, g.size)
	// crypto/rand.Read never returns an error; it aborts the program if the
	// OS random source is unavailable.
	_, _ = rand.Read(raw)

	return base64.RawURLEncoding.EncodeToString(raw)
}
