package uid

import "github.com/google/uuid"

// UUID produces time-ordered (version 7) UUIDs for challenge and correlation
// IDs. They are identifiers, not secrets; use SecureToken for anything a
// caller must not be able to guess.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
