// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"net"
)

// Dialer opens the byte stream to a storage server. The remotefs
// Connection calls DialContext once per connect attempt and owns the
// returned net.Conn until the next attempt or Close.
type Dialer interface {
	// DialContext opens a network connection to the server at address
	// ("host:port"). Implementations must honor ctx cancellation and
	// any configured connect timeout.
	DialContext(ctx context.Context, address string) (net.Conn, error)
}

// DialerFunc adapts an ordinary function to the Dialer interface.
// Tests use it to inject refusals or hand out net.Pipe ends.
type DialerFunc func(ctx context.Context, address string) (net.Conn, error)

// DialContext calls f(ctx, address).
func (f DialerFunc) DialContext(ctx context.Context, address string) (net.Conn, error) {
	return f(ctx, address)
}
