package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// Every body this API accepts is a small JSON object.
const maxBodyBytes = 64 * 1024

// Request is what a Handler receives.
type Request struct {
	*http.Request
}

// DecodeBody strictly decodes a single JSON object into dst. Unknown fields,
// trailing data and oversized bodies are rejected with a 400.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}
