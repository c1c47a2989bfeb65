// Package goerror carries the error taxonomy shared by usecases and the HTTP
// layer. Usecases return *Error values; the router renders them using Msg,
// StatusCode and Fields.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned by stores when a write loses a race or
	// duplicates a key.
	ErrConflict = errors.New("resource conflict")
)

// Type buckets errors by who is at fault.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
	// TypeTransient marks a failed external collaborator (mail server,
	// session store). The caller may retry.
	TypeTransient
)

var typeNames = [...]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
	TypeTransient:  "ERROR_TYPE_TRANSIENT",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "ERROR_TYPE_UNKNOWN"
}

// Code selects the HTTP status an error is rendered with.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequests
	CodeUnauthorized
	CodeUnavailable
)

var codeTable = [...]struct {
	name   string
	status int
}{
	CodeInternal:        {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:   {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:    {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:        {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:        {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequests: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:    {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeUnavailable:     {"ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
}

func (c Code) valid() bool { return c >= 0 && int(c) < len(codeTable) }

func (c Code) String() string {
	if c.valid() {
		return codeTable[c].name
	}
	return codeTable[CodeInternal].name
}

// Error pairs an optional cause with a client-safe message, a Type and a Code.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error returns the cause's text when there is one, otherwise the message.
// It is meant for logs; clients see Msg.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.errType.String()
	}
}

// String is a verbose form for debugging.
func (e *Error) String() string {
	return fmt.Sprintf("%s/%s: %q: %v", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.errType }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.err }

// Retryable reports whether the caller may retry the same request later.
func (e *Error) Retryable() bool {
	return e.errType == TypeTransient
}

// StatusCode maps Code to an HTTP status. Unknown codes render as 500.
func (e *Error) StatusCode() int {
	if e.code.valid() {
		return codeTable[e.code].status
	}
	return http.StatusInternalServerError
}

// NewServer wraps an unexpected failure. The cause is never shown to clients.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewTransient wraps a failed external collaborator with a retry hint.
func NewTransient(err error, msg string) error {
	return &Error{err: err, msg: msg, errType: TypeTransient, code: CodeUnavailable}
}

// NewBusiness reports a rule violation the client can act on.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewInvalidInput builds a 422. Pass either a validator error as err, or
// field/message pairs in kv. An odd kv length is treated as a malformed body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat builds a 400 for a body or query that could not be parsed.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}
