package entity

import "errors"

var (
	ErrInvalidIdentity   = errors.New("adminauth: invalid identity")
	ErrInvalidCode       = errors.New("adminauth: invalid code")
	ErrRateLimited       = errors.New("adminauth: rate limited")
	ErrDeliveryFailed    = errors.New("adminauth: code delivery failed")
	ErrChallengeNotFound = errors.New("adminauth: challenge not found")
	ErrCodeMismatch      = errors.New("adminauth: code mismatch")
	ErrTooManyAttempts   = errors.New("adminauth: too many attempts")
	ErrTokenInvalid      = errors.New("adminauth: session token invalid")
	ErrTokenExpired      = errors.New("adminauth: session token expired")
)
