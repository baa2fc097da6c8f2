// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"net"
	"time"
)

// Compile-time interface checks.
var (
	_ Dialer = (*TCPDialer)(nil)
	_ Dialer = DialerFunc(nil)
)

// DefaultConnectTimeout bounds a single connect attempt when the
// caller does not configure one.
const DefaultConnectTimeout = 5 * time.Second

// KeepAlive configures TCP keepalive probing on dialed sockets. A
// dead peer surfaces as a read error after Idle + Interval*Count.
type KeepAlive struct {
	// Enabled turns probing on. When false the operating system
	// default applies.
	Enabled bool

	// Idle is how long the connection must be idle before the first
	// probe is sent.
	Idle time.Duration

	// Interval is the time between unanswered probes.
	Interval time.Duration

	// Count is the number of unanswered probes before the connection
	// is considered dead.
	Count int
}

// DefaultKeepAlive matches the probing schedule used for the
// reference deployment: first probe after 30s idle, then every 10s,
// giving up after 3 misses.
func DefaultKeepAlive() KeepAlive {
	return KeepAlive{
		Enabled:  true,
		Idle:     30 * time.Second,
		Interval: 10 * time.Second,
		Count:    3,
	}
}

// TCPDialer opens TCP connections to a storage server.
type TCPDialer struct {
	// Timeout is the maximum time to wait for a TCP connection to be
	// established. Zero means only the context deadline applies. The
	// bound covers the dial only; reads on the established connection
	// are not affected.
	Timeout time.Duration

	// KeepAlive configures probing on the dialed socket.
	KeepAlive KeepAlive
}

// DialContext opens a TCP connection to the given address (host:port).
func (d *TCPDialer) DialContext(ctx context.Context, address string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: d.Timeout}
	if d.KeepAlive.Enabled {
		dialer.KeepAliveConfig = net.KeepAliveConfig{
			Enable:   true,
			Idle:     d.KeepAlive.Idle,
			Interval: d.KeepAlive.Interval,
			Count:    d.KeepAlive.Count,
		}
	} else {
		dialer.KeepAlive = -1
	}
	return dialer.DialContext(ctx, "tcp", address)
}
