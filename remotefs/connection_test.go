// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/remotefs/lib/netutil"
	"github.com/bureau-foundation/remotefs/lib/testutil"
)

func echoReplies(line string) string {
	return line + " done\n"
}

func TestConnectionConnect(t *testing.T) {
	dialer := newStubDialer(respondWith(echoReplies))
	connection, _ := newTestConnection(t, dialer)
	changes, unsubscribe := connection.Subscribe()
	defer unsubscribe()

	if connection.State() != Disconnected {
		t.Fatalf("initial state = %s, want disconnected", connection.State())
	}

	if err := connection.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	connecting := testutil.RequireReceive(t, changes, testTimeout, "connecting")
	if connecting.State != Connecting || connecting.Attempt != 1 {
		t.Errorf("first change = %+v, want connecting attempt 1", connecting)
	}
	connected := testutil.RequireReceive(t, changes, testTimeout, "connected")
	if connected.State != Connected || connected.Err != nil {
		t.Errorf("second change = %+v, want connected without error", connected)
	}
	if connection.Generation() != 1 {
		t.Errorf("generation = %d, want 1", connection.Generation())
	}
}

func TestConnectionConnectRefused(t *testing.T) {
	dialer := newStubDialer(respondWith(echoReplies))
	dialer.refusals = 1
	connection, _ := newTestConnection(t, dialer)
	changes, unsubscribe := connection.Subscribe()
	defer unsubscribe()

	err := connection.Connect(context.Background())
	if !IsConnectionFault(err) {
		t.Fatalf("Connect error = %v, want connection fault", err)
	}
	var remoteError *Error
	if !errors.As(err, &remoteError) {
		t.Fatalf("Connect error %T is not *Error", err)
	}
	if remoteError.Cause() != "connection refused" {
		t.Errorf("Cause() = %q, want %q", remoteError.Cause(), "connection refused")
	}
	if connection.State() != Faulted {
		t.Errorf("state = %s, want faulted", connection.State())
	}

	waitForState(t, changes, Connecting)
	faulted := testutil.RequireReceive(t, changes, testTimeout, "faulted")
	if faulted.State != Faulted || faulted.Err == nil {
		t.Errorf("change = %+v, want faulted with cause", faulted)
	}
	if connection.Generation() != 0 {
		t.Errorf("generation = %d, want 0", connection.Generation())
	}
}

func TestConnectionConnectReplacesHandle(t *testing.T) {
	dialer := newStubDialer(respondWith(echoReplies))
	connection, _ := newTestConnection(t, dialer)

	if err := connection.Connect(context.Background()); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	first := dialer.LastClient(t)

	if err := connection.Connect(context.Background()); err != nil {
		t.Fatalf("second Connect: %v", err)
	}

	if _, err := first.Conn.Write([]byte("x")); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("write on replaced handle = %v, want io.ErrClosedPipe", err)
	}
	if connection.Generation() != 2 {
		t.Errorf("generation = %d, want 2", connection.Generation())
	}
}

func TestConnectionClose(t *testing.T) {
	dialer := newStubDialer(respondWith(echoReplies))
	channel, _ := newConnectedChannel(t, dialer)
	connection := channel.Connection()

	if err := connection.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if connection.State() != Disconnected {
		t.Errorf("state = %s, want disconnected", connection.State())
	}
	if err := connection.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	_, err := channel.Execute(context.Background(), VerbList)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Execute after Close = %v, want ErrNotConnected", err)
	}
}

func TestReconnectConvergence(t *testing.T) {
	tests := []struct {
		name     string
		refusals int
	}{
		{name: "immediate", refusals: 0},
		{name: "one refusal", refusals: 1},
		{name: "three refusals", refusals: 3},
		{name: "six refusals", refusals: 6},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dialer := newStubDialer(respondWith(echoReplies))
			dialer.refusals = test.refusals
			connection, fakeClock := newTestConnection(t, dialer)
			changes, unsubscribe := connection.Subscribe()
			defer unsubscribe()
			runReconnectLoop(t, connection)

			err := connection.Connect(context.Background())
			testutil.RequireReceive(t, dialer.dialed, testTimeout, "initial dial")
			if test.refusals == 0 {
				if err != nil {
					t.Fatalf("Connect: %v", err)
				}
			} else {
				if !IsConnectionFault(err) {
					t.Fatalf("Connect error = %v, want connection fault", err)
				}
				connection.requestReconnect()
			}

			for attempt := 1; attempt <= test.refusals; attempt++ {
				fakeClock.WaitForTimers(1)
				if dials := dialer.Dials(); dials != attempt {
					t.Fatalf("before retry %d: %d dials, want %d (retry must wait the interval)", attempt, dials, attempt)
				}
				fakeClock.Advance(testRetryInterval)
				testutil.RequireReceive(t, dialer.dialed, testTimeout, "retry dial %d", attempt)
			}

			waitForState(t, changes, Connected)
			if dials := dialer.Dials(); dials != test.refusals+1 {
				t.Errorf("dials = %d, want %d", dials, test.refusals+1)
			}
			if maxActive := dialer.MaxActive(); maxActive != 1 {
				t.Errorf("max concurrent dials = %d, want 1", maxActive)
			}
			if connection.State() != Connected {
				t.Errorf("state = %s, want connected", connection.State())
			}
		})
	}
}

func TestReceiveFaultSchedulesOneAttempt(t *testing.T) {
	var connections atomic.Int32
	dialer := newStubDialer(func(server net.Conn) {
		if connections.Add(1) > 1 {
			respondWith(echoReplies)(server)
			return
		}
		// First connection: accept the login, then drop the client on
		// the next command without replying.
		defer server.Close()
		if _, err := testutil.ReadLine(server); err != nil {
			return
		}
		io.WriteString(server, "Login successful\n")
		testutil.ReadLine(server)
	})
	channel, fakeClock := newConnectedChannel(t, dialer)
	connection := channel.Connection()
	auth := NewAuthSession(channel, slog.New(slog.DiscardHandler))
	runReconnectLoop(t, connection)

	result, err := auth.Login(context.Background(), "alice", "pw")
	if err != nil || !result.Success {
		t.Fatalf("Login = %+v, %v", result, err)
	}

	changes, unsubscribe := connection.Subscribe()
	defer unsubscribe()

	_, err = channel.List(context.Background())
	if !IsConnectionFault(err) {
		t.Fatalf("List error = %v, want connection fault", err)
	}
	if !errors.Is(err, io.EOF) {
		t.Errorf("List error = %v, want io.EOF cause", err)
	}

	faulted := testutil.RequireReceive(t, changes, testTimeout, "fault notification")
	if faulted.State != Faulted {
		t.Fatalf("change = %+v, want faulted", faulted)
	}
	testutil.RequireNoReceive(t, changes, 50*time.Millisecond, "second notification for one fault")

	if session := auth.Current(); !session.Authenticated || session.Username != "alice" {
		t.Errorf("session after fault = %+v, want alice still recorded", session)
	}

	fakeClock.WaitForTimers(1)
	if pending := fakeClock.PendingCount(); pending != 1 {
		t.Errorf("pending retry timers = %d, want 1", pending)
	}
	if dials := dialer.Dials(); dials != 1 {
		t.Fatalf("dials before retry = %d, want 1", dials)
	}

	fakeClock.Advance(testRetryInterval)
	waitForState(t, changes, Connected)
	if dials := dialer.Dials(); dials != 2 {
		t.Errorf("dials after retry = %d, want 2", dials)
	}

	if session := auth.Current(); session.Authenticated {
		t.Errorf("session after reconnect = %+v, want cleared", session)
	}
}

func TestHandleFaultOncePerHandle(t *testing.T) {
	dialer := newStubDialer(respondWith(echoReplies))
	channel, _ := newConnectedChannel(t, dialer)
	connection := channel.Connection()
	handle := dialer.LastClient(t)

	changes, unsubscribe := connection.Subscribe()
	defer unsubscribe()

	var wait sync.WaitGroup
	for range 4 {
		wait.Add(1)
		go func() {
			defer wait.Done()
			connection.handleFault(handle, io.EOF)
		}()
	}
	wait.Wait()

	testutil.RequireReceive(t, changes, testTimeout, "fault notification")
	testutil.RequireNoReceive(t, changes, 50*time.Millisecond, "duplicate fault notification")
	if pending := len(connection.wake); pending != 1 {
		t.Errorf("pending reconnect requests = %d, want 1", pending)
	}

	// A fault against a handle that has been replaced is ignored.
	if err := connection.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitForState(t, changes, Connected)
	connection.handleFault(handle, io.EOF)
	testutil.RequireNoReceive(t, changes, 50*time.Millisecond, "stale fault notification")
	if connection.State() != Connected {
		t.Errorf("state after stale fault = %s, want connected", connection.State())
	}
}

func TestReconnectSkipsClosedConnection(t *testing.T) {
	var connections atomic.Int32
	dialer := newStubDialer(func(server net.Conn) {
		connections.Add(1)
		server.Close()
	})
	channel, fakeClock := newConnectedChannel(t, dialer)
	connection := channel.Connection()
	runReconnectLoop(t, connection)
	testutil.RequireReceive(t, dialer.dialed, testTimeout, "initial dial")

	if _, err := channel.List(context.Background()); !IsConnectionFault(err) {
		t.Fatalf("List error = %v, want connection fault", err)
	}
	fakeClock.WaitForTimers(1)

	connection.Close()
	fakeClock.Advance(testRetryInterval)

	testutil.RequireNoReceive(t, dialer.dialed, 100*time.Millisecond, "dial after Close")
	if connection.State() != Disconnected {
		t.Errorf("state = %s, want disconnected", connection.State())
	}
}

func TestReadTimeoutFaults(t *testing.T) {
	dialer := newStubDialer(func(server net.Conn) {
		defer server.Close()
		testutil.ReadLine(server)
		// Never reply; wait for the client to give up.
		io.Copy(io.Discard, server)
	})
	connection, err := NewConnection(ConnectionConfig{
		Address:     "files.test:8080",
		Dialer:      dialer,
		ReadTimeout: 50 * time.Millisecond,
		Logger:      slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	defer connection.Close()
	if err := connection.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	channel := NewCommandChannel(connection, slog.New(slog.DiscardHandler))
	_, err = channel.List(context.Background())
	if !IsConnectionFault(err) {
		t.Fatalf("List error = %v, want connection fault", err)
	}
	if !netutil.IsTimeout(err) {
		t.Errorf("List error = %v, want timeout", err)
	}
	if connection.State() != Faulted {
		t.Errorf("state = %s, want faulted", connection.State())
	}
}

func TestLeaseHonorsContext(t *testing.T) {
	dialer := newStubDialer(respondWith(echoReplies))
	channel, _ := newConnectedChannel(t, dialer)
	connection := channel.Connection()

	if err := connection.acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer connection.release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := channel.List(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("List while lease held = %v, want context.DeadlineExceeded", err)
	}
	if len(dialer.LastClient(t).Writes()) != 0 {
		t.Error("List wrote to the connection without the lease")
	}
}

func TestLeaseSerializesCommands(t *testing.T) {
	dialer := newStubDialer(respondWith(echoReplies))
	channel, _ := newConnectedChannel(t, dialer)

	const workers = 16
	var wait sync.WaitGroup
	failures := make(chan string, workers)
	for worker := range workers {
		wait.Add(1)
		go func() {
			defer wait.Done()
			name := fmt.Sprintf("file-%d", worker)
			response, err := channel.Stat(context.Background(), name)
			if err != nil {
				failures <- fmt.Sprintf("%s: %v", name, err)
				return
			}
			if want := "STAT " + name + " done"; response.Text != want {
				failures <- fmt.Sprintf("%s: reply %q, want %q", name, response.Text, want)
			}
		}()
	}
	wait.Wait()
	close(failures)
	for failure := range failures {
		t.Error(failure)
	}
}
