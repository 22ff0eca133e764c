// Package otp generates one-time numeric codes delivered out of band.
//
// Codes are short-lived secrets: store only a keyed digest of them (see package
// hash) and hand the plaintext to the delivery channel exactly once.
package otp
