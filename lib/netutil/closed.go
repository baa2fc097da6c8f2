// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal connection termination:
// EOF, closed connection, broken pipe, or connection reset. A storage server
// that drops the client (shutdown, idle eviction) produces one of these on
// the next read or write. They trigger a reconnect but are not logged as
// errors.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}

// IsTimeout reports whether err is a deadline expiry, either from a
// socket read deadline or a context deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netError net.Error
	return errors.As(err, &netError) && netError.Timeout()
}

// DescribeFault returns a short human-readable cause for a transport
// error, suitable for a status line ("connection refused", "timed
// out"). Unrecognized errors fall back to err.Error().
func DescribeFault(err error) string {
	if err == nil {
		return ""
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return "connection refused"
		case syscall.ECONNRESET:
			return "connection reset by server"
		case syscall.EPIPE:
			return "connection closed by server"
		case syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return "server unreachable"
		}
	}
	switch {
	case errors.Is(err, io.EOF):
		return "connection closed by server"
	case errors.Is(err, net.ErrClosed):
		return "connection closed"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case IsTimeout(err):
		return "timed out"
	}
	var dnsError *net.DNSError
	if errors.As(err, &dnsError) {
		return "cannot resolve " + dnsError.Name
	}
	return err.Error()
}
