// Package uid generates identifiers and opaque secrets.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
