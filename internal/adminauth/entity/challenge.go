package entity

import "time"

// Challenge is an outstanding one-time code awaiting verification.
//
// Only the HMAC of the code is kept; the plaintext leaves the store once, on
// creation.
type Challenge struct {
	ID                string
	Identity          string
	CodeHash          string
	CreatedAt         time.Time
	ExpiresAt         time.Time
	AttemptsRemaining int
	Consumed          bool
	// Superseded holds the hashes of earlier codes this challenge replaced
	// while they were still pending, oldest first.
	Superseded []string
}

// Active reports whether the challenge can still validate a code at now.
func (c Challenge) Active(now time.Time) bool {
	return !c.Consumed && c.AttemptsRemaining > 0 && now.Before(c.ExpiresAt)
}

// VerifyOutcome is the result of checking a candidate code against a challenge.
type VerifyOutcome int

const (
	// OutcomeNotFound: no challenge, it is expired, consumed or exhausted, or
	// the code belongs to a challenge a newer request replaced.
	OutcomeNotFound VerifyOutcome = iota
	// OutcomeMismatch: wrong code, attempts remain.
	OutcomeMismatch
	// OutcomeAttemptsExceeded: wrong code and this was the last attempt.
	OutcomeAttemptsExceeded
	// OutcomeValid: the code matched and the challenge is now consumed.
	OutcomeValid
)

func (o VerifyOutcome) String() string {
	switch o {
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeAttemptsExceeded:
		return "attempts_exceeded"
	case OutcomeValid:
		return "valid"
	default:
		return "not_found"
	}
}

// VerifyResult carries the outcome and, for a mismatch, how many tries are left.
type VerifyResult struct {
	Outcome           VerifyOutcome
	AttemptsRemaining int
	// Superseded is set when the code matched a replaced challenge.
	Superseded bool
}
