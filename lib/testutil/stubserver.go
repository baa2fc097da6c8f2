// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
)

// StubServer is a loopback TCP listener that hands every accepted
// connection to a scripted handler. It stands in for the storage
// server in client tests. The listener and all open connections are
// closed when the test completes.
type StubServer struct {
	listener net.Listener
	accepted atomic.Int64

	mu          sync.Mutex
	connections []net.Conn
}

// NewStubServer listens on 127.0.0.1:0 and runs handler for each
// accepted connection in its own goroutine. The handler owns the
// connection and may close it to simulate a server-side drop.
func NewStubServer(t *testing.T, handler func(connection net.Conn)) *StubServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("stub server: listen: %v", err)
	}
	server := &StubServer{listener: listener}
	t.Cleanup(server.close)

	go func() {
		for {
			connection, acceptError := listener.Accept()
			if acceptError != nil {
				return
			}
			server.accepted.Add(1)
			server.mu.Lock()
			server.connections = append(server.connections, connection)
			server.mu.Unlock()
			go handler(connection)
		}
	}()

	return server
}

// Address returns the "host:port" the stub is listening on.
func (s *StubServer) Address() string {
	return s.listener.Addr().String()
}

// Accepted returns how many connections the stub has accepted.
func (s *StubServer) Accepted() int {
	return int(s.accepted.Load())
}

func (s *StubServer) close() {
	s.listener.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, connection := range s.connections {
		connection.Close()
	}
}

// ReadLine reads one newline-terminated command line from connection,
// one byte at a time so that raw bytes following the line (an upload
// stream) stay unread. The returned line excludes the newline.
func ReadLine(connection net.Conn) (string, error) {
	var line []byte
	single := make([]byte, 1)
	for {
		if _, err := connection.Read(single); err != nil {
			return string(line), err
		}
		if single[0] == '\n' {
			return string(line), nil
		}
		line = append(line, single[0])
	}
}
