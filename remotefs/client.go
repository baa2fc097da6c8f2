// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Options configures a [Client].
type Options struct {
	// Connection configures the transport, timeouts, and retry interval.
	// Connection.Logger is ignored in favor of Logger.
	Connection ConnectionConfig

	// Logger receives all client logs. Nil means slog.Default().
	Logger *slog.Logger
}

// Client owns one connection to a storage server and the components
// layered on it. All components share the same connection; there is
// no package-level state.
type Client struct {
	Connection *Connection
	Commands   *CommandChannel
	Auth       *AuthSession
	Uploads    *UploadPipeline
	Downloads  *DownloadPipeline

	logger *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New builds a client. It does not dial; call Start.
func New(options Options) (*Client, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	connectionConfig := options.Connection
	connectionConfig.Logger = logger
	connection, err := NewConnection(connectionConfig)
	if err != nil {
		return nil, err
	}

	channel := NewCommandChannel(connection, logger)
	return &Client{
		Connection: connection,
		Commands:   channel,
		Auth:       NewAuthSession(channel, logger),
		Uploads:    NewUploadPipeline(channel, logger),
		Downloads:  NewDownloadPipeline(channel, logger),
		logger:     logger,
	}, nil
}

// Start performs the initial connect and starts the reconnect loop in
// the background. If the initial connect fails, the loop is woken to
// keep retrying and the error is returned; the client remains usable
// and will become Connected when the server is reachable. Start may be
// called once; the loop stops when ctx is done or Close is called.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("remotefs: client already started")
	}
	c.started = true
	loopContext, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go func() {
		defer close(c.done)
		c.Connection.Run(loopContext)
	}()

	if err := c.Connection.Connect(ctx); err != nil {
		c.Connection.requestReconnect()
		return err
	}
	return nil
}

// Close stops the reconnect loop, waits for it to exit, and closes
// the connection. It does not send LOGOUT; call Auth.Logout first for
// a clean server-side exit.
func (c *Client) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return c.Connection.Close()
}

// Execute is shorthand for c.Commands.Execute.
func (c *Client) Execute(ctx context.Context, verb string, args ...string) (Response, error) {
	return c.Commands.Execute(ctx, verb, args...)
}
