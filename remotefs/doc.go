// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package remotefs is the network layer of a client for a remote
// file-storage server.
//
// The server speaks a line-oriented plaintext protocol over one TCP
// connection: the client writes a single newline-terminated command
// ("LOGIN alice pa55word\n", "LS\n") and reads one reply of at most
// 1024 bytes. The reply carries no status code or length; success is
// recognized by substring ("successful" for authentication, "READY"
// for upload approval, "SIZE n" for a download announcement).
//
// The package is layered leaf-first:
//
//   - [Connection] owns the transport handle and a four-state machine
//     (Disconnected, Connecting, Connected, Faulted). Any I/O error on
//     the handle moves it to Faulted, notifies subscribers once, and
//     wakes the reconnect loop ([Connection.Run]), which retries at a
//     fixed interval until a connect succeeds. Every logical operation
//     holds the connection's exclusive lease, so a reconnect never
//     interleaves with traffic and replies are never misattributed.
//   - [CommandChannel] performs the synchronous command/response
//     exchange and offers one typed helper per protocol verb.
//   - [AuthSession] records who is logged in. The record is local: it
//     is dropped on logout and whenever the connection is re-established,
//     since the server does not carry sessions across connections.
//   - [UploadPipeline] runs the three-phase upload (handshake, raw
//     1024-byte chunks, single confirmation) directly on the
//     connection, bypassing command framing for the streaming phase.
//   - [DownloadPipeline] runs the reverse sequence: a SIZE
//     announcement, a raw "READY" acknowledgement, and exactly the
//     announced number of bytes.
//
// [Client] wires one of each around a single Connection.
//
// Errors are [*Error] values classified by [ErrorKind]:
// ConnectionFault (transport lost, reconnect scheduled),
// ProtocolMismatch (the server answered, but not with the expected
// token), and LocalIOFault (a local file could not be read or written;
// the connection stays usable). Nothing except the connection itself
// is retried.
package remotefs
