// Package goerror defines the typed errors that the router turns into JSON
// error responses.
package goerror

import (
	"fmt"
	"net/http"
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeServer is a failure the caller cannot fix by retrying differently.
	TypeServer Type = iota
	// TypeBusiness is a rule of the domain refusing the request.
	TypeBusiness
	// TypeValidation is malformed or invalid caller input.
	TypeValidation
)

var typeNames = map[Type]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "ERROR_TYPE_UNKNOWN"
}

// Code is a stable identifier that decides the HTTP status of an error.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeTooManyRequest
	CodeUnauthorized
	CodeUnavailable
)

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeUnavailable:    {"ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
}

func (c Code) String() string {
	if def, ok := codes[c]; ok {
		return def.name
	}
	return codes[CodeInternal].name
}

// Error is the structured error handlers return to the router. It carries a
// user-facing message, the code that picks the HTTP status, optional extra
// response fields and, for errors.Is matching, an underlying cause.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]any
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String is the verbose form used in logs.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string            { return e.msg }
func (e *Error) Type() Type             { return e.errType }
func (e *Error) Code() Code             { return e.code }
func (e *Error) Fields() map[string]any { return e.fields }
func (e *Error) Unwrap() error          { return e.err }

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	if def, ok := codes[e.code]; ok {
		return def.status
	}
	return http.StatusInternalServerError
}

// NewServer hides err behind a generic message; err is only visible in logs.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewInvalidFormat reports a 400 for an unreadable request body.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}

// NewBusinessCause creates a business-type error that wraps cause so callers can
// match it with errors.Is. kv pairs are attached as response fields; keys must be
// strings and odd trailing values are ignored.
func NewBusinessCause(cause error, msg string, code Code, kv ...any) error {
	return &Error{err: cause, msg: msg, errType: TypeBusiness, code: code, fields: toFields(kv)}
}

// NewValidationCause creates a validation error (400) that wraps cause.
func NewValidationCause(cause error, msg string, kv ...any) error {
	return &Error{err: cause, msg: msg, errType: TypeValidation, code: CodeInvalidFormat, fields: toFields(kv)}
}

func toFields(kv []any) map[string]any {
	if len(kv) < 2 {
		return nil
	}

	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fields[key] = kv[i+1]
		}
	}
	return fields
}
