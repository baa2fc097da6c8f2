// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for remotefs packages.
//
// [RequireReceive], [RequireNoReceive], and [RequireClosed] wrap the
// select-with-timeout pattern so individual tests do not call
// time.After directly. These are the only real wall-clock timeouts in
// the test suite; retry intervals are driven by lib/clock.Fake.
//
// [StubServer] is a scripted loopback TCP server standing in for the
// storage server, and [ReadLine] reads one command line without
// consuming the raw bytes that follow it.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
