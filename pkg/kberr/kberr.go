package kberr

import (
	"errors"
	"fmt"
)

// Code represents a stable error category that callers can switch on.
type Code string

const (
	CodeUnknown           Code = "unknown"
	CodeExchangeFailed    Code = "exchange_failed"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeSignatureMismatch Code = "signature_mismatch"
	CodeStaleTimestamp    Code = "stale_timestamp"
	CodeReplayed          Code = "replayed"
)

// Error carries a Code plus the underlying error. Status is only set for
// CodeExchangeFailed and holds the HTTP status returned by the remote side
// (0 when the request never got a response).
type Error struct {
	Code   Code
	Status int
	err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.err == nil {
		if e.Status != 0 {
			return fmt.Sprintf("%s: status %d", e.Code, e.Status)
		}
		return string(e.Code)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Code, e.Status, e.err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// New wraps an error with the provided code. If err is nil a nil is returned.
func New(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, err: err}
}

// ExchangeFailed reports an outbound call that did not come back with a 2xx.
func ExchangeFailed(op string, status int, cause error) error {
	if cause == nil {
		cause = fmt.Errorf("%s returned status %d", op, status)
	} else {
		cause = fmt.Errorf("%s: %w", op, cause)
	}
	return &Error{Code: CodeExchangeFailed, Status: status, err: cause}
}

// IsCode reports whether any error in err's chain carries code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in the chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// StatusOf returns the remote HTTP status attached to an ExchangeFailed error.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
