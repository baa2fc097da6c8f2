// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Response is one server reply.
type Response struct {
	// Raw is the bytes of the single read, unmodified.
	Raw []byte

	// Text is Raw decoded as UTF-8 with malformed sequences dropped
	// and surrounding whitespace trimmed. The server's replies carry
	// no status code; callers inspect Text.
	Text string
}

func newResponse(raw []byte) Response {
	return Response{Raw: raw, Text: decodeReply(raw)}
}

func decodeReply(raw []byte) string {
	return strings.TrimSpace(string(bytes.ToValidUTF8(raw, nil)))
}

// CommandChannel performs the synchronous command/response exchange:
// one newline-terminated line out, one read of at most
// [MaxReplySize] bytes back. A reply longer than that is truncated at
// the read boundary, and the remainder is read as the start of the
// next reply; the protocol has no framing to detect this.
type CommandChannel struct {
	connection *Connection
	logger     *slog.Logger
}

// NewCommandChannel returns a channel on connection. A nil logger
// means slog.Default().
func NewCommandChannel(connection *Connection, logger *slog.Logger) *CommandChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandChannel{connection: connection, logger: logger}
}

// Connection returns the underlying connection.
func (ch *CommandChannel) Connection() *Connection {
	return ch.connection
}

// formatCommand builds "<verb> <arg> <arg>...\n". Arguments may not
// contain line breaks, and the verb may not be empty or contain
// whitespace; either would change how the server splits the line.
func formatCommand(verb string, args []string) ([]byte, error) {
	if verb == "" || strings.ContainsAny(verb, " \t\r\n") {
		return nil, fmt.Errorf("%w: verb %q", ErrInvalidArgument, verb)
	}
	var line bytes.Buffer
	line.WriteString(verb)
	for _, arg := range args {
		if strings.ContainsAny(arg, "\r\n") {
			return nil, fmt.Errorf("%w: %s argument contains a line break", ErrInvalidArgument, verb)
		}
		line.WriteByte(' ')
		line.WriteString(arg)
	}
	line.WriteByte('\n')
	return line.Bytes(), nil
}

// Execute sends one command and returns the server's reply. If no
// connection is established it returns a ConnectionFault wrapping
// [ErrNotConnected] without touching the transport. A transport error
// faults the connection (scheduling a reconnect) and is returned as a
// ConnectionFault.
func (ch *CommandChannel) Execute(ctx context.Context, verb string, args ...string) (Response, error) {
	line, err := formatCommand(verb, args)
	if err != nil {
		return Response{}, err
	}
	if err := ch.connection.acquire(ctx); err != nil {
		return Response{}, err
	}
	defer ch.connection.release()
	return ch.exchange(verb, line)
}

// exchange writes line and reads one reply. Caller must hold the lease.
func (ch *CommandChannel) exchange(verb string, line []byte) (Response, error) {
	if err := ch.connection.send(verb, line); err != nil {
		return Response{}, err
	}
	raw, err := ch.connection.receive(verb, MaxReplySize)
	if err != nil {
		return Response{}, err
	}
	response := newResponse(raw)
	ch.logger.Debug("command exchanged",
		"verb", verb,
		"reply_bytes", len(raw),
	)
	return response, nil
}

// Notify sends one command without waiting for a reply. The reply, if
// the server sends one, will be read by whichever exchange comes next;
// use it only for commands the server does not answer.
func (ch *CommandChannel) Notify(ctx context.Context, verb string, args ...string) error {
	line, err := formatCommand(verb, args)
	if err != nil {
		return err
	}
	if err := ch.connection.acquire(ctx); err != nil {
		return err
	}
	defer ch.connection.release()
	return ch.connection.send(verb, line)
}
