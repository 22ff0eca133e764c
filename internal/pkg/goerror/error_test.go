package goerror_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "Server", err: goerror.NewServer(errors.New("boom")), want: http.StatusInternalServerError},
		{name: "Unauthorized", err: goerror.NewBusiness("nope", goerror.CodeUnauthorized), want: http.StatusUnauthorized},
		{name: "TooManyRequest", err: goerror.NewBusiness("slow down", goerror.CodeTooManyRequest), want: http.StatusTooManyRequests},
		{name: "Unavailable", err: goerror.NewBusiness("down", goerror.CodeUnavailable), want: http.StatusServiceUnavailable},
		{name: "InvalidFormat", err: goerror.NewInvalidFormat(), want: http.StatusBadRequest},
		{name: "Validation", err: goerror.NewValidationCause(errors.New("bad"), "bad input"), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *goerror.Error
			require.ErrorAs(t, tt.err, &gerr)
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}

func TestNewBusinessCause(t *testing.T) {
	cause := errors.New("code mismatch")

	err := goerror.NewBusinessCause(cause, "invalid code", goerror.CodeUnauthorized, "attemptsRemaining", 2, 42, "ignored", "dangling")

	assert.ErrorIs(t, err, cause)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "invalid code", gerr.Msg())
	assert.Equal(t, goerror.TypeBusiness, gerr.Type())
	assert.Equal(t, map[string]any{"attemptsRemaining": 2}, gerr.Fields())
}

func TestNewValidationCause(t *testing.T) {
	cause := errors.New("invalid identity")

	err := goerror.NewValidationCause(cause, "identity must be an email address")

	assert.ErrorIs(t, err, cause)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusBadRequest, gerr.StatusCode())
	assert.Equal(t, goerror.TypeValidation, gerr.Type())
	assert.Nil(t, gerr.Fields())
}

func TestNewValidationCause_Fields(t *testing.T) {
	err := goerror.NewValidationCause(errors.New("bad code"), "Code must be numeric", "field", "code", "dangling")

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeInvalidFormat, gerr.Code())
	assert.Equal(t, map[string]any{"field": "code"}, gerr.Fields())
}
