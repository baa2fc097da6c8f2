// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/bureau-foundation/remotefs/lib/clock"
	"github.com/bureau-foundation/remotefs/lib/testutil"
)

const (
	testRetryInterval = 500 * time.Millisecond
	testTimeout       = 5 * time.Second
)

// recordingConn records every Write so tests can assert on how the
// client framed its output.
type recordingConn struct {
	net.Conn

	mu     sync.Mutex
	writes [][]byte
}

func (r *recordingConn) Write(data []byte) (int, error) {
	r.mu.Lock()
	r.writes = append(r.writes, bytes.Clone(data))
	r.mu.Unlock()
	return r.Conn.Write(data)
}

func (r *recordingConn) Writes() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.writes...)
}

// stubDialer hands out the client end of a net.Pipe per dial and runs
// handler on the server end. The first refusals dials fail with
// ECONNREFUSED.
type stubDialer struct {
	handler func(server net.Conn)

	mu        sync.Mutex
	refusals  int
	dials     int
	active    int
	maxActive int
	clients   []*recordingConn
	dialed    chan struct{}
}

func newStubDialer(handler func(server net.Conn)) *stubDialer {
	return &stubDialer{handler: handler, dialed: make(chan struct{}, 64)}
}

func (d *stubDialer) DialContext(ctx context.Context, address string) (net.Conn, error) {
	d.mu.Lock()
	d.dials++
	d.active++
	if d.active > d.maxActive {
		d.maxActive = d.active
	}
	refuse := d.refusals > 0
	if refuse {
		d.refusals--
	}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.active--
		d.mu.Unlock()
		select {
		case d.dialed <- struct{}{}:
		default:
		}
	}()

	if refuse {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	server, client := net.Pipe()
	go d.handler(server)
	recorded := &recordingConn{Conn: client}

	d.mu.Lock()
	d.clients = append(d.clients, recorded)
	d.mu.Unlock()
	return recorded, nil
}

func (d *stubDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *stubDialer) MaxActive() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxActive
}

// LastClient returns the client end of the most recent successful dial.
func (d *stubDialer) LastClient(t *testing.T) *recordingConn {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.clients) == 0 {
		t.Fatal("no successful dial yet")
	}
	return d.clients[len(d.clients)-1]
}

// respondWith answers every command line with reply(line) until the
// client goes away.
func respondWith(reply func(line string) string) func(net.Conn) {
	return func(server net.Conn) {
		defer server.Close()
		for {
			line, err := testutil.ReadLine(server)
			if err != nil {
				return
			}
			if _, err := io.WriteString(server, reply(line)); err != nil {
				return
			}
		}
	}
}

// fileServer is a minimal in-memory rendition of the storage server's
// command handling: enough of LOGIN, LOGOUT, UPLOAD, and DOWNLOAD to
// exercise the client's pipelines, plus a fixed reply per verb for
// everything else.
type fileServer struct {
	mu       sync.Mutex
	files    map[string][]byte
	users    map[string]string
	lines    []string
	uploaded chan string
}

func newFileServer() *fileServer {
	return &fileServer{
		files:    make(map[string][]byte),
		users:    map[string]string{"alice": "pw"},
		uploaded: make(chan string, 16),
	}
}

func (s *fileServer) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *fileServer) File(name string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[name]
}

func (s *fileServer) Put(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = content
}

var argumentCounts = map[string]int{
	VerbLogin:    2,
	VerbRegister: 2,
	VerbUpload:   2,
	VerbDownload: 1,
}

func (s *fileServer) Serve(server net.Conn) {
	defer server.Close()
	loggedIn := ""
	for {
		line, err := testutil.ReadLine(server)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()

		fields := strings.Fields(line)
		if len(fields) == 0 || (argumentCounts[fields[0]] > len(fields)-1) {
			io.WriteString(server, "Invalid command\n")
			continue
		}
		switch fields[0] {
		case VerbLogin:
			s.mu.Lock()
			password, known := s.users[fields[1]]
			s.mu.Unlock()
			if known && len(fields) == 3 && password == fields[2] {
				loggedIn = fields[1]
				io.WriteString(server, "Login successful\n")
			} else {
				io.WriteString(server, "Invalid credentials\n")
			}
		case VerbRegister:
			s.mu.Lock()
			_, exists := s.users[fields[1]]
			if !exists {
				s.users[fields[1]] = fields[2]
			}
			s.mu.Unlock()
			if exists {
				io.WriteString(server, "User already exists\n")
			} else {
				io.WriteString(server, "Registration successful\n")
			}
		case VerbLogout:
			loggedIn = ""
			io.WriteString(server, "Logged out\n")
		case VerbUpload:
			if loggedIn == "" {
				io.WriteString(server, "Please login first\n")
				continue
			}
			size, err := strconv.ParseInt(fields[2], 10, 64)
			if err != nil || size <= 0 {
				io.WriteString(server, "Invalid Size\n")
				continue
			}
			io.WriteString(server, "READY")
			content := make([]byte, size)
			if _, err := io.ReadFull(server, content); err != nil {
				return
			}
			s.Put(fields[1], content)
			s.uploaded <- fields[1]
			io.WriteString(server, "Upload Complete\n")
		case VerbDownload:
			content := s.File(fields[1])
			if content == nil {
				io.WriteString(server, "File not found\n")
				continue
			}
			io.WriteString(server, "SIZE "+strconv.Itoa(len(content)))
			acknowledgement := make([]byte, 5)
			if _, err := io.ReadFull(server, acknowledgement); err != nil {
				return
			}
			for offset := 0; offset < len(content); offset += MaxReplySize {
				end := min(offset+MaxReplySize, len(content))
				if _, err := server.Write(content[offset:end]); err != nil {
					return
				}
			}
		default:
			io.WriteString(server, fields[0]+" ok\n")
		}
	}
}

// newTestConnection returns a connection on dialer driven by a fake
// clock.
func newTestConnection(t *testing.T, dialer *stubDialer) (*Connection, *clock.FakeClock) {
	t.Helper()
	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	connection, err := NewConnection(ConnectionConfig{
		Address:       "files.test:8080",
		Dialer:        dialer,
		RetryInterval: testRetryInterval,
		Clock:         fakeClock,
		Logger:        slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	t.Cleanup(func() { connection.Close() })
	return connection, fakeClock
}

// newConnectedChannel dials dialer once and returns a command channel
// on the live connection.
func newConnectedChannel(t *testing.T, dialer *stubDialer) (*CommandChannel, *clock.FakeClock) {
	t.Helper()
	connection, fakeClock := newTestConnection(t, dialer)
	if err := connection.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return NewCommandChannel(connection, slog.New(slog.DiscardHandler)), fakeClock
}

// runReconnectLoop starts connection.Run and stops it at test cleanup.
func runReconnectLoop(t *testing.T, connection *Connection) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		connection.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		testutil.RequireClosed(t, done, testTimeout, "reconnect loop did not stop")
	})
}

// waitForState reads changes until one with the wanted state arrives.
func waitForState(t *testing.T, changes <-chan StateChange, want State) StateChange {
	t.Helper()
	for {
		change := testutil.RequireReceive(t, changes, testTimeout, "waiting for state %s", want)
		if change.State == want {
			return change
		}
	}
}

func patterned(size int) []byte {
	content := make([]byte, size)
	for i := range content {
		content[i] = byte(i % 251)
	}
	return content
}
