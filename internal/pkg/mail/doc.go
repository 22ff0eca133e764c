// Package mail defines the contracts for sending email messages.
//
// Use cases work with the Mail interface and the provider-agnostic Message
// payload. SMTP delivers through wneessen/go-mail; Writer prints messages for
// local development.
package mail
