package otp

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
)

const (
	// MinDigits is the shortest code length accepted by NewNumeric.
	MinDigits = 4
	// MaxDigits is the longest code length accepted by NewNumeric.
	MaxDigits = 10
)

// ErrInvalidLength is returned when the requested code length is out of range.
var ErrInvalidLength = errors.New("otp: code length must be between 4 and 10 digits")

// OTP defines the contract for one-time code generation.
type OTP interface {
	// Generate returns a new random code.
	Generate() (string, error)
	// Length returns the number of digits each code has.
	Length() int
	// IsWellFormed reports whether code has the generator's shape.
	IsWellFormed(code string) bool
}

// Numeric generates fixed-length decimal codes.
//
// Every digit is drawn independently and uniformly from crypto/rand, so codes
// are neither derived from a seed nor biased towards low digits.
type Numeric struct {
	length int
	rand   io.Reader
}

// NewNumeric constructs a Numeric generator producing codes of length digits.
func NewNumeric(length int) (*Numeric, error) {
	if length < MinDigits || length > MaxDigits {
		return nil, ErrInvalidLength
	}

	return &Numeric{length: length, rand: rand.Reader}, nil
}

// Generate returns a new code such as "048213".
func (n *Numeric) Generate() (string, error) {
	ten := big.NewInt(10)
	code := make([]byte, n.length)

	for i := range code {
		d, err := rand.Int(n.rand, ten)
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + d.Int64())
	}

	return string(code), nil
}

// Length returns the configured number of digits.
func (n *Numeric) Length() int {
	return n.length
}

// IsWellFormed reports whether code is exactly Length ASCII digits.
func (n *Numeric) IsWellFormed(code string) bool {
	if len(code) != n.length {
		return false
	}

	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	return true
}
