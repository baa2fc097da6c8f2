// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the injectable time source used by the remotefs
// client.
//
// Production code holds a [Clock] field set to [Real]. Tests use
// [Fake], which only moves when [FakeClock.Advance] is called, and
// [FakeClock.WaitForTimers] to close the race between a goroutine
// registering a wait and the test advancing past it.
package clock
