// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"context"
)

// Run is the reconnect loop. It sleeps until a fault wakes it, then
// waits the retry interval and attempts a connect, repeating at the
// same fixed interval until an attempt succeeds. There is no backoff
// and no attempt limit. Attempts are strictly sequential, and each
// holds the exclusive lease, so a reconnect never races normal
// traffic.
//
// A connection that is no longer Faulted when its retry timer fires
// (Close was called, or an explicit Connect already succeeded) ends
// the retry cycle without dialing.
//
// Run blocks until ctx is done and returns ctx.Err(). Run it in its
// own goroutine; at most one Run per Connection.
func (c *Connection) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
		}
		c.reconnect(ctx)
	}
}

func (c *Connection) reconnect(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(c.retryInterval):
		}

		if c.State() != Faulted {
			return
		}
		if err := c.acquire(ctx); err != nil {
			return
		}
		// Re-check under the lease: an explicit Connect may have run
		// while this attempt was waiting.
		if c.State() != Faulted {
			c.release()
			return
		}
		err := c.connect(ctx)
		c.release()
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}
