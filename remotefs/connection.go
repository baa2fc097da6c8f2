// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/remotefs/lib/clock"
	"github.com/bureau-foundation/remotefs/lib/netutil"
	"github.com/bureau-foundation/remotefs/transport"
)

// MaxReplySize is the largest reply read in one receive, and the chunk
// size for streamed file bytes.
const MaxReplySize = 1024

// DefaultRetryInterval is the fixed delay before each reconnect attempt.
const DefaultRetryInterval = 500 * time.Millisecond

// subscriberBuffer is the capacity of each subscriber channel. A
// subscriber that falls further behind misses changes.
const subscriberBuffer = 64

// ConnectionConfig configures a [Connection].
type ConnectionConfig struct {
	// Address is the server endpoint, "host:port". Required.
	Address string

	// Dialer opens the byte stream. Nil means a [transport.TCPDialer]
	// with ConnectTimeout and default keepalive.
	Dialer transport.Dialer

	// ConnectTimeout bounds each dial. Zero means
	// [transport.DefaultConnectTimeout]. The bound is not applied to
	// reads on the established connection.
	ConnectTimeout time.Duration

	// ReadTimeout bounds each receive. Zero waits indefinitely. A
	// receive that times out is a connection fault: the reply may
	// still arrive later, and reading it as the answer to the next
	// command would misattribute it, so the handle is discarded.
	ReadTimeout time.Duration

	// RetryInterval is the delay before each reconnect attempt. Zero
	// means [DefaultRetryInterval].
	RetryInterval time.Duration

	// Clock drives the retry interval. Nil means the real clock.
	Clock clock.Clock

	// Logger receives lifecycle and fault logs. Nil means slog.Default().
	Logger *slog.Logger
}

// Connection owns the transport handle to the storage server and its
// lifecycle state machine:
//
//	Disconnected --Connect--> Connecting --ok--> Connected
//	Connecting --fail--> Faulted
//	Connected --I/O error--> Faulted
//	Faulted --retry--> Connecting
//	any --Close--> Disconnected
//
// Exactly one logical operation (a command exchange, an upload, a
// download, or a connect attempt) uses the connection at a time; each
// holds the connection's exclusive lease for its whole duration.
// Waiting for the lease honors the caller's context. Once bytes are on
// the wire the operation runs to completion or fault.
type Connection struct {
	address        string
	dialer         transport.Dialer
	connectTimeout time.Duration
	readTimeout    time.Duration
	retryInterval  time.Duration
	clock          clock.Clock
	logger         *slog.Logger

	// lease is a one-slot semaphore. A channel rather than a mutex so
	// that acquisition can be abandoned when the context is done.
	lease chan struct{}

	// wake carries at most one pending reconnect request to Run.
	wake chan struct{}

	mu             sync.Mutex
	state          State
	handle         net.Conn
	generation     uint64
	attempt        int
	closed         bool
	subscribers    map[int]chan StateChange
	nextSubscriber int
}

// NewConnection returns a Disconnected connection. It does not dial.
func NewConnection(config ConnectionConfig) (*Connection, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("remotefs: connection address is required")
	}

	connectTimeout := config.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = transport.DefaultConnectTimeout
	}
	retryInterval := config.RetryInterval
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	dialer := config.Dialer
	if dialer == nil {
		dialer = &transport.TCPDialer{
			Timeout:   connectTimeout,
			KeepAlive: transport.DefaultKeepAlive(),
		}
	}
	connectionClock := config.Clock
	if connectionClock == nil {
		connectionClock = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Connection{
		address:        config.Address,
		dialer:         dialer,
		connectTimeout: connectTimeout,
		readTimeout:    config.ReadTimeout,
		retryInterval:  retryInterval,
		clock:          connectionClock,
		logger:         logger.With("address", config.Address),
		lease:          make(chan struct{}, 1),
		wake:           make(chan struct{}, 1),
		subscribers:    make(map[int]chan StateChange),
	}, nil
}

// Address returns the server endpoint.
func (c *Connection) Address() string {
	return c.address
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation returns a counter incremented on every successful
// connect. Two observations with the same generation refer to the same
// server-side connection.
func (c *Connection) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Subscribe returns a channel that receives every subsequent state
// change, and a function that unsubscribes and closes the channel.
func (c *Connection) Subscribe() (<-chan StateChange, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubscriber
	c.nextSubscriber++
	channel := make(chan StateChange, subscriberBuffer)
	c.subscribers[id] = channel

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subscribers, id)
			close(channel)
		})
	}
	return channel, cancel
}

// setStateLocked records the new state and notifies subscribers.
// Caller must hold c.mu.
func (c *Connection) setStateLocked(state State, cause error, attempt int) {
	c.state = state
	change := StateChange{State: state, Err: cause, Attempt: attempt}
	for _, channel := range c.subscribers {
		select {
		case channel <- change:
		default:
		}
	}
}

func (c *Connection) acquire(ctx context.Context) error {
	select {
	case c.lease <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Connection) release() {
	<-c.lease
}

// Connect dials the server, replacing any existing handle. It waits
// for the exclusive lease, so it never interrupts an operation in
// progress. On failure the connection is Faulted and the returned
// ConnectionFault describes the cause; Connect does not itself
// schedule a retry.
func (c *Connection) Connect(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()
	return c.connect(ctx)
}

// connect performs one connect attempt. Caller must hold the lease.
func (c *Connection) connect(ctx context.Context) error {
	c.mu.Lock()
	previous := c.handle
	c.handle = nil
	c.closed = false
	c.attempt++
	attempt := c.attempt
	c.setStateLocked(Connecting, nil, attempt)
	c.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	c.logger.Debug("connecting", "attempt", attempt)

	dialContext, cancel := context.WithTimeout(ctx, c.connectTimeout)
	handle, err := c.dialer.DialContext(dialContext, c.address)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		if handle != nil {
			handle.Close()
		}
		return connectionFault("connect", net.ErrClosed)
	}

	if err != nil {
		c.setStateLocked(Faulted, err, attempt)
		c.logger.Warn("connect failed",
			"attempt", attempt,
			"cause", netutil.DescribeFault(err),
		)
		return connectionFault("connect", err)
	}

	c.handle = handle
	c.generation++
	c.attempt = 0
	c.setStateLocked(Connected, nil, attempt)
	c.logger.Info("connected", "attempt", attempt, "generation", c.generation)
	return nil
}

// Close discards the handle and moves to Disconnected. A running
// reconnect loop will not reconnect a closed connection; only an
// explicit Connect reopens it. Close does not wait for the lease: an
// operation in flight fails with a ConnectionFault. Close is
// idempotent.
func (c *Connection) Close() error {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.attempt = 0
	alreadyClosed := c.closed && c.state == Disconnected
	c.closed = true
	if !alreadyClosed {
		c.setStateLocked(Disconnected, nil, 0)
	}
	c.mu.Unlock()

	if handle == nil {
		return nil
	}
	c.logger.Info("disconnected")
	if err := handle.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// current returns the live handle, or a ConnectionFault wrapping
// ErrNotConnected.
func (c *Connection) current(op string) (net.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil || c.state != Connected {
		return nil, connectionFault(op, ErrNotConnected)
	}
	return c.handle, nil
}

// handleFault invalidates handle after an I/O error. Faults reported
// against a handle that has already been replaced or closed are
// ignored, so concurrent failures on one handle produce exactly one
// Faulted transition, one notification, and one reconnect request.
func (c *Connection) handleFault(handle net.Conn, cause error) {
	c.mu.Lock()
	if handle == nil || handle != c.handle {
		c.mu.Unlock()
		return
	}
	c.handle = nil
	c.setStateLocked(Faulted, cause, 0)
	c.mu.Unlock()

	handle.Close()

	if netutil.IsExpectedCloseError(cause) {
		c.logger.Warn("connection closed by server", "cause", netutil.DescribeFault(cause))
	} else {
		c.logger.Warn("connection fault", "cause", netutil.DescribeFault(cause), "error", cause)
	}

	c.requestReconnect()
}

// requestReconnect wakes Run. Requests coalesce: at most one is
// pending at a time.
func (c *Connection) requestReconnect() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// send writes data in full. Caller must hold the lease.
func (c *Connection) send(op string, data []byte) error {
	handle, err := c.current(op)
	if err != nil {
		return err
	}
	if _, err := handle.Write(data); err != nil {
		c.handleFault(handle, err)
		return connectionFault(op, err)
	}
	return nil
}

// receive performs one read of at most max bytes. Caller must hold
// the lease.
func (c *Connection) receive(op string, max int) ([]byte, error) {
	handle, err := c.current(op)
	if err != nil {
		return nil, err
	}
	if c.readTimeout > 0 {
		handle.SetReadDeadline(time.Now().Add(c.readTimeout)) //nolint:realclock kernel socket deadline
	}
	buffer := make([]byte, max)
	count, err := handle.Read(buffer)
	if err != nil {
		c.handleFault(handle, err)
		return nil, connectionFault(op, err)
	}
	return buffer[:count], nil
}

// Send writes data to the server as-is. It is a thin pass-through for
// callers speaking the protocol directly; CommandChannel and the
// pipelines are built on the same primitive.
func (c *Connection) Send(ctx context.Context, data []byte) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()
	return c.send("send", data)
}

// Receive performs one read of at most max bytes.
func (c *Connection) Receive(ctx context.Context, max int) ([]byte, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	return c.receive("receive", max)
}
