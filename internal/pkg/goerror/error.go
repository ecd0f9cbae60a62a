// Package goerror carries the error taxonomy shared by usecases and the
// HTTP layer: a type, a stable code mapped to an HTTP status, a user-facing
// message and optional response fields.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by stores when a key or row is absent.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned by stores when a uniqueness rule is violated.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

var typeNames = [...]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "ERROR_TYPE_UNKNOWN"
	}
	return typeNames[t]
}

// Code is a stable identifier mapped to an HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeGone marks a flow that existed but can no longer continue.
	CodeGone
	// CodeBadGateway marks a failed upstream provider such as mail or SMS.
	CodeBadGateway
)

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:       {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:      {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:        {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeGone:           {"ERROR_CODE_GONE", http.StatusGone},
	CodeBadGateway:     {"ERROR_CODE_BAD_GATEWAY", http.StatusBadGateway},
}

func (c Code) String() string {
	if d, ok := codes[c]; ok {
		return d.name
	}
	return codes[CodeInternal].name
}

// Status returns the HTTP status of c. Unknown codes are 500.
func (c Code) Status() int {
	if d, ok := codes[c]; ok {
		return d.status
	}
	return http.StatusInternalServerError
}

// Error is a structured error. It may wrap a cause, which stays reachable
// through errors.Is and errors.As.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	case e.errType == TypeValidation:
		return "Validation violation"
	case e.errType == TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String is the verbose form used in debug logs.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

// Msg returns the user-facing message.
func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

// Fields returns the key/value pairs rendered under "error" in responses.
func (e *Error) Fields() map[string]string { return e.fields }

func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int { return e.code.Status() }

// pairs turns k1, v1, k2, v2 into a map. A trailing key without a value is
// dropped; no pairs gives nil.
func pairs(kv []string) map[string]string {
	if len(kv) < 2 {
		return nil
	}

	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

// NewServer hides err behind a generic 500 message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewBusiness creates a business rule error with the given message and code.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewBusinessCause is NewBusiness keeping cause reachable and attaching
// key/value response fields.
func NewBusinessCause(cause error, msg string, code Code, kv ...string) error {
	return &Error{err: cause, msg: msg, errType: TypeBusiness, code: code, fields: pairs(kv)}
}

// NewInvalidInput wraps a validator error, or builds one from field/message
// pairs when err is nil. An odd pair list is reported as a malformed body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := pairs(kv)
	if fields == nil {
		fields = map[string]string{}
	}
	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports a body that could not be decoded.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}
