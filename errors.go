package qs

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes codec errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates a malformed option or input type:
	// non-positive parameter limit, unsupported charset, a Decode input that
	// is neither text nor a map, or DecodeDotInKeys with AllowDots
	// explicitly disabled.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeLimitExceeded indicates a parameter- or list-limit breach with
	// ThrowOnLimitExceeded set.
	ErrCodeLimitExceeded ErrorCode = "LIMIT_EXCEEDED"

	// ErrCodeDepthExceeded indicates a key nested deeper than Depth with
	// StrictDepth set.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"

	// ErrCodeCyclicReference indicates the encoder reencountered an ancestor
	// container; cyclic structures have no finite text form.
	ErrCodeCyclicReference ErrorCode = "CYCLIC_REFERENCE"
)

// Error is a structured codec error. Validation errors are raised at call
// entry; limit and cycle errors are raised at the point of detection
// mid-traversal with no partial-result guarantee.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func hasCode(err error, code ErrorCode) bool {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

// IsInvalidArgument reports whether err is an INVALID_ARGUMENT error.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrCodeInvalidArgument)
}

// IsLimitExceeded reports whether err is a LIMIT_EXCEEDED error.
func IsLimitExceeded(err error) bool {
	return hasCode(err, ErrCodeLimitExceeded)
}

// IsDepthExceeded reports whether err is a DEPTH_EXCEEDED error.
func IsDepthExceeded(err error) bool {
	return hasCode(err, ErrCodeDepthExceeded)
}

// IsCyclicReference reports whether err is a CYCLIC_REFERENCE error.
func IsCyclicReference(err error) bool {
	return hasCode(err, ErrCodeCyclicReference)
}
