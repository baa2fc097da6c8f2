// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash provides BLAKE3 content digests for transferred files.
//
// The storage protocol carries no checksum: an upload is raw bytes with
// a single textual confirmation. The client computes a BLAKE3 digest of
// exactly the bytes it put on (or took off) the wire so a transfer can
// be audited locally against the source file. The digest never travels
// to the server.
//
//   - [Hasher] -- io.Writer that accumulates a digest chunk by chunk
//   - [HashFile] -- streams a file through BLAKE3 with constant memory
//   - [Sum] -- one-shot digest of an in-memory slice
//   - [FormatDigest] and [ParseDigest] -- hex round-trip
//
// Depends on github.com/zeebo/blake3.
package binhash
