// Package hash provides helpers for hashing and verifying secrets.
//
// One-time codes and session tokens are stored only as keyed digests; callers
// verify user input by comparing it against the stored digest. Implementations
// live in this package behind the small Hash interface.
package hash
