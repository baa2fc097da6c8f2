// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source for code that waits. The connection's
// reconnect loop and the transfer pipelines take a Clock instead of
// calling the time package so that tests can step retry intervals
// without sleeping.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0 the channel is ready immediately.
	After(d time.Duration) <-chan time.Time
}

// Real returns the wall clock.
func Real() Clock { return wall{} }

// wall delegates to the time package. It is the only Clock that
// sleeps.
type wall struct{}

func (wall) Now() time.Time { return time.Now() }

func (wall) After(d time.Duration) <-chan time.Time {
	return time.After(d) //nolint:realclock wall clock
}
