// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/remotefs/lib/netutil"
)

// ErrorKind classifies an [*Error].
type ErrorKind int

const (
	// ConnectionFault: the transport failed (refused, reset, closed,
	// timed out) or no connection is established. The connection has
	// moved to Faulted and a reconnect is scheduled.
	ConnectionFault ErrorKind = iota + 1

	// ProtocolMismatch: the server replied, but not with the token the
	// operation expected. The reply text is carried in the error.
	ProtocolMismatch

	// LocalIOFault: a local file could not be read or written. The
	// connection is unaffected.
	LocalIOFault
)

// String returns the kind name used in logs.
func (k ErrorKind) String() string {
	switch k {
	case ConnectionFault:
		return "connection fault"
	case ProtocolMismatch:
		return "protocol mismatch"
	case LocalIOFault:
		return "local I/O fault"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the error type returned by every remotefs operation that
// fails for a reason other than a cancelled context or invalid
// arguments.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Op is the operation or protocol verb that failed ("connect",
	// "LOGIN", "upload").
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause returns a short human-readable cause for display next to a
// status line. For connection faults this is the classified transport
// error ("connection refused"); otherwise it is the error text.
func (e *Error) Cause() string {
	if e.Kind == ConnectionFault {
		return netutil.DescribeFault(e.Err)
	}
	return e.Err.Error()
}

var (
	// ErrNotConnected is returned, wrapped in a ConnectionFault, when an
	// operation is attempted with no established connection. The
	// transport is not touched.
	ErrNotConnected = errors.New("not connected")

	// ErrUploadRejected is wrapped in the ProtocolMismatch returned when
	// the server does not answer an UPLOAD handshake with READY.
	ErrUploadRejected = errors.New("upload rejected by server")

	// ErrDownloadRefused is wrapped in the ProtocolMismatch returned
	// when the server does not answer a DOWNLOAD with a SIZE
	// announcement.
	ErrDownloadRefused = errors.New("download refused by server")

	// ErrAuthenticationFailed is wrapped in the ProtocolMismatch
	// returned when LOGIN or REGISTER is answered without
	// "successful".
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidArgument is returned before anything is sent when a
	// command argument would break the one-line wire format.
	ErrInvalidArgument = errors.New("invalid argument")
)

func connectionFault(op string, err error) *Error {
	return &Error{Kind: ConnectionFault, Op: op, Err: err}
}

func protocolMismatch(op string, err error) *Error {
	return &Error{Kind: ProtocolMismatch, Op: op, Err: err}
}

func localIOFault(op string, err error) *Error {
	return &Error{Kind: LocalIOFault, Op: op, Err: err}
}

func isKind(err error, kind ErrorKind) bool {
	var remoteError *Error
	return errors.As(err, &remoteError) && remoteError.Kind == kind
}

// IsConnectionFault reports whether err is or wraps a ConnectionFault.
func IsConnectionFault(err error) bool {
	return isKind(err, ConnectionFault)
}

// IsProtocolMismatch reports whether err is or wraps a ProtocolMismatch.
func IsProtocolMismatch(err error) bool {
	return isKind(err, ProtocolMismatch)
}

// IsLocalIOFault reports whether err is or wraps a LocalIOFault.
func IsLocalIOFault(err error) bool {
	return isKind(err, LocalIOFault)
}
