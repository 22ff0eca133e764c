// Package config exposes typed, read-only access to runtime settings.
package config

import (
	"io"
	"time"
)

// Durations are stored as plain integers in a named unit; the key suffix
// (_milliseconds, _seconds, _minutes) tells which getter to use.
type DurationConfig interface {
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
}

// Config reads settings by dotted key, for example
// "modules.adminauth.otp.ttl_seconds". Missing or unconvertible values come
// back as the zero value of the requested type, so every key should have an
// entry in Defaults.
type Config interface {
	io.Closer
	DurationConfig

	GetInt(key string) int
	GetUint64(key string) uint64
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetArray splits a comma separated value, trimming blanks and dropping
	// empty elements.
	GetArray(key string) []string
}
