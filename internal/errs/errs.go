// Package errs provides coded errors for the editor engine and its hosts.
//
// Engine failures that a host may need to branch on (an unknown command name,
// a rejected import, a gesture already in progress) carry a Code. Everything
// else is wrapped with fmt.Errorf at the storage and service boundaries.
//
//	if err := ed.Invoke("nope"); errs.Is(err, errs.ErrCodeUnknownCommand) {
//	    // programmer error: the command was never registered
//	}
package errs

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeUnknownCommand  Code = "UNKNOWN_COMMAND"
	ErrCodeReentrantInvoke Code = "REENTRANT_INVOKE"
	ErrCodeMalformedValue  Code = "MALFORMED_VALUE"
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeGestureActive   Code = "GESTURE_ACTIVE"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether any error in err's chain is an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the code from err, or "" if err carries none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
