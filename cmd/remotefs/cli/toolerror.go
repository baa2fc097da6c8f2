// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/remotefs/remotefs"
)

// ErrorCategory classifies a command failure so that scripts can branch
// on the exit status without parsing the message.
type ErrorCategory string

const (
	// CategoryValidation: bad flags, arguments, or configuration.
	// Fix the input and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryForbidden: the server refused the credentials.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryTransient: the server could not be reached or the
	// connection dropped. Retrying later may succeed.
	CategoryTransient ErrorCategory = "transient"

	// CategoryProtocol: the server answered, but not with the reply
	// the operation needed (upload rejected, download refused).
	CategoryProtocol ErrorCategory = "protocol"

	// CategoryInternal: local I/O failures and anything unexpected.
	CategoryInternal ErrorCategory = "internal"
)

// Exit statuses per category. 1 is left for uncategorized errors.
var categoryExitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryTransient:  3,
	CategoryProtocol:   4,
	CategoryForbidden:  5,
	CategoryInternal:   1,
}

// ToolError is a categorized command error with an optional hint
// printed after the message.
type ToolError struct {
	Category ErrorCategory
	Err      error
	Hint     string
}

// Error returns the message, followed by a blank line and the hint
// when one is set.
func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets the hint and returns the receiver for chaining.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// Validation creates a validation error.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// Forbidden creates an authentication error.
func Forbidden(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

// Transient creates a connectivity error.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Protocol creates an unexpected-reply error.
func Protocol(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryProtocol, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// Classify wraps an error from the remotefs package in the matching
// category. Errors that already carry a category, and nil, pass
// through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return err
	}

	switch {
	case errors.Is(err, remotefs.ErrAuthenticationFailed):
		return &ToolError{Category: CategoryForbidden, Err: err}
	case errors.Is(err, remotefs.ErrInvalidArgument):
		return &ToolError{Category: CategoryValidation, Err: err}
	case remotefs.IsConnectionFault(err), errors.Is(err, remotefs.ErrNotConnected):
		return &ToolError{Category: CategoryTransient, Err: err}
	case remotefs.IsProtocolMismatch(err):
		return &ToolError{Category: CategoryProtocol, Err: err}
	default:
		return &ToolError{Category: CategoryInternal, Err: err}
	}
}

// ExitCode returns the process exit status for err: 0 for nil, the
// explicit code of an [ExitError], the category's code for a
// [ToolError], and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		if code, ok := categoryExitCodes[toolErr.Category]; ok {
			return code
		}
	}
	return 1
}
