// Package domainerrors provides coded errors for the domain layer. Services
// attach a Code to every error they surface so transports can map outcomes to
// protocol status without string matching, and tests can assert on the kind of
// failure rather than its wording.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. The set mirrors the failure taxonomy of the
// governance core: who may act, what exists, what conflicts, what is malformed,
// what ran out, and what is not configured yet.
type Code string

const (
	// CodeValidation marks malformed input (bad lengths, out-of-range values).
	CodeValidation Code = "validation"
	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks an operation that is valid in isolation but violates a
	// current invariant (duplicate name, illegal state transition, last admin).
	CodeConflict Code = "conflict"
	// CodeUnauthorized marks a caller lacking the required role.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks a caller acting on a resource they do not own.
	CodeForbidden Code = "forbidden"
	// CodeResourceFailed marks a quantitative precondition failure (unpaid fee,
	// insufficient funds, exhausted quota).
	CodeResourceFailed Code = "resource_failed"
	// CodePreconditionFailed marks a singleton that has not been configured yet.
	CodePreconditionFailed Code = "precondition_failed"
	// CodeInvariantViolation marks a broken aggregate invariant detected at
	// construction or mutation time.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error carries a code, a caller-facing message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a caller-facing message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. A nil cause yields
// nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so transports never leak raw failures as client faults.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-facing message, falling back to the error text.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
