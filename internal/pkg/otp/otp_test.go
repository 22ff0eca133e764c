package otp

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumeric(t *testing.T) {
	for _, length := range []int{0, 3, 11} {
		_, err := NewNumeric(length)
		assert.ErrorIs(t, err, ErrInvalidLength, "length %d", length)
	}

	gen, err := NewNumeric(6)
	require.NoError(t, err)
	assert.Equal(t, 6, gen.Length())
}

func TestNumeric_Generate(t *testing.T) {
	for _, length := range []int{MinDigits, 6, 8, MaxDigits} {
		gen, err := NewNumeric(length)
		require.NoError(t, err)

		for range 50 {
			code, err := gen.Generate()
			require.NoError(t, err)
			assert.Len(t, code, length)
			assert.True(t, gen.IsWellFormed(code), "code %q", code)
		}
	}
}

func TestNumeric_GenerateDigitSpread(t *testing.T) {
	gen, err := NewNumeric(10)
	require.NoError(t, err)

	var all strings.Builder
	for range 200 {
		code, err := gen.Generate()
		require.NoError(t, err)
		all.WriteString(code)
	}

	for d := '0'; d <= '9'; d++ {
		assert.Contains(t, all.String(), string(d))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestNumeric_GenerateReaderError(t *testing.T) {
	gen := &Numeric{length: 6, rand: failingReader{}}

	_, err := gen.Generate()
	assert.Error(t, err)
}

func TestNumeric_IsWellFormed(t *testing.T) {
	gen, err := NewNumeric(6)
	require.NoError(t, err)

	tests := map[string]bool{
		"123456":  true,
		"000000":  true,
		"12345":   false,
		"1234567": false,
		"12a456":  false,
		"12 456":  false,
		"":        false,
		"١٢٣٤٥٦":  false,
	}

	for code, want := range tests {
		assert.Equal(t, want, gen.IsWellFormed(code), "code %q", code)
	}
}
