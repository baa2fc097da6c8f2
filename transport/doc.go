// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport opens the byte stream between a remotefs client
// and its storage server.
//
// [Dialer] is the seam the client's Connection dials through. The
// production implementation, [TCPDialer], bounds each attempt with a
// connect timeout and enables TCP keepalive probing so that a
// silently dropped connection is detected on the next read. The
// wire is plain TCP: no framing, encryption, or multiplexing is
// layered on top.
//
// [DialerFunc] adapts a function to the interface, which is how tests
// inject dialers that refuse a fixed number of attempts or return one
// end of a net.Pipe.
package transport
