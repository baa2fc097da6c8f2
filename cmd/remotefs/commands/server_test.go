// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/remotefs/lib/testutil"
)

const testTimeout = 5 * time.Second

// storageServer is an in-memory storage server speaking the wire
// protocol over loopback TCP. The password for every user is "pw".
type storageServer struct {
	stub *testutil.StubServer

	mu    sync.Mutex
	files map[string][]byte
	lines []string
}

func newStorageServer(t *testing.T) *storageServer {
	t.Helper()
	server := &storageServer{files: make(map[string][]byte)}
	server.stub = testutil.NewStubServer(t, server.serve)
	return server
}

func (s *storageServer) Address() string { return s.stub.Address() }

func (s *storageServer) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *storageServer) File(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[name]
	return content, ok
}

func (s *storageServer) Put(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = content
}

func (s *storageServer) listing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.files) == 0 {
		return "(empty)\n"
	}
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n") + "\n"
}

func (s *storageServer) serve(connection net.Conn) {
	defer connection.Close()
	for {
		line, err := testutil.ReadLine(connection)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		reply := ""
		switch fields[0] {
		case "LOGIN":
			reply = "Invalid credentials\n"
			if len(fields) == 3 && fields[2] == "pw" {
				reply = "Login successful\n"
			}
		case "REGISTER":
			reply = "Registration successful\n"
		case "LOGOUT":
			reply = "Logged out\n"
		case "LS":
			reply = s.listing()
		case "MKDIR":
			reply = "Directory created\n"
		case "UPLOAD":
			if !s.receiveUpload(connection, fields) {
				return
			}
			continue
		case "DOWNLOAD":
			if !s.sendDownload(connection, fields) {
				return
			}
			continue
		default:
			reply = "Invalid command\n"
		}
		if _, err := io.WriteString(connection, reply); err != nil {
			return
		}
	}
}

func (s *storageServer) receiveUpload(connection net.Conn, fields []string) bool {
	if len(fields) != 3 {
		_, err := io.WriteString(connection, "Invalid command\n")
		return err == nil
	}
	size, err := strconv.Atoi(fields[2])
	if err != nil || size <= 0 {
		_, err := io.WriteString(connection, "Invalid Size\n")
		return err == nil
	}
	if _, err := io.WriteString(connection, "READY"); err != nil {
		return false
	}
	content := make([]byte, size)
	if _, err := io.ReadFull(connection, content); err != nil {
		return false
	}
	s.Put(fields[1], content)
	_, err = io.WriteString(connection, "Upload Complete\n")
	return err == nil
}

func (s *storageServer) sendDownload(connection net.Conn, fields []string) bool {
	content, ok := s.File(fields[len(fields)-1])
	if len(fields) != 2 || !ok {
		_, err := io.WriteString(connection, "File not found\n")
		return err == nil
	}
	if _, err := fmt.Fprintf(connection, "SIZE %d", len(content)); err != nil {
		return false
	}
	acknowledgement := make([]byte, len("READY"))
	if _, err := io.ReadFull(connection, acknowledgement); err != nil {
		return false
	}
	_, err := connection.Write(content)
	return err == nil
}
