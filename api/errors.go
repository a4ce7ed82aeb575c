// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-relay.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrUnknownToken     = errors.New("unknown token")
	ErrRegistration     = errors.New("reactor registration failed")
	ErrPoll             = errors.New("reactor poll failed")
	ErrAccept           = errors.New("accept failed")
	ErrRead             = errors.New("read failed")
	ErrWouldBlock       = errors.New("operation would block")
	ErrServerClosed     = errors.New("server closed")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotSupported     = errors.New("operation not supported")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeInvalidArgument ErrorCode = iota + 1
	ErrCodeNotSupported
	ErrCodeFatal
)

// String returns a short name for the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotSupported:
		return "not_supported"
	case ErrCodeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error represents a structured error with code and context.
// Kind is the sentinel the error belongs to and Err the underlying cause;
// both participate in errors.Is / errors.As.
type Error struct {
	Code    ErrorCode
	Message string
	Kind    error
	Err     error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes both the sentinel kind and the cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// Fatal builds an ErrCodeFatal error of the given kind wrapping cause.
func Fatal(kind, cause error) *Error {
	e := NewError(ErrCodeFatal, kind.Error())
	e.Kind = kind
	e.Err = cause
	return e
}

// Invalid reports a rejected argument or setting. It matches
// ErrInvalidArgument under errors.Is.
func Invalid(format string, args ...any) *Error {
	e := NewError(ErrCodeInvalidArgument, fmt.Sprintf(format, args...)+": "+ErrInvalidArgument.Error())
	e.Kind = ErrInvalidArgument
	return e
}

// Unsupported reports a feature missing on this platform. It matches
// ErrNotSupported under errors.Is.
func Unsupported(what string) *Error {
	e := NewError(ErrCodeNotSupported, what+": "+ErrNotSupported.Error()+" on this platform")
	e.Kind = ErrNotSupported
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsFatal reports whether err carries an ErrCodeFatal structured error.
func IsFatal(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeFatal
}
