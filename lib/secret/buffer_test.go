// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"strings"
	"testing"
)

func TestNewSizes(t *testing.T) {
	tests := []struct {
		size    int
		wantErr bool
	}{
		{size: 1},
		{size: 64},
		{size: 4096 + 1},
		{size: 0, wantErr: true},
		{size: -1, wantErr: true},
	}
	for _, test := range tests {
		buffer, err := New(test.size)
		if test.wantErr {
			if err == nil {
				buffer.Close()
				t.Errorf("New(%d) succeeded, want an error", test.size)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%d): %v", test.size, err)
		}
		if buffer.Len() != test.size {
			t.Errorf("New(%d).Len() = %d", test.size, buffer.Len())
		}
		for index, value := range buffer.Bytes() {
			if value != 0 {
				t.Fatalf("New(%d): byte %d = %d, want zero-filled", test.size, index, value)
			}
		}
		buffer.Close()
	}
}

func TestNewFromBytesMovesSource(t *testing.T) {
	source := []byte("correct-horse-battery")

	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if buffer.String() != "correct-horse-battery" {
		t.Errorf("String() = %q", buffer.String())
	}
	if strings.Trim(string(source), "\x00") != "" {
		t.Errorf("source not zeroed: %q", source)
	}
}

func TestNewFromBytesEmpty(t *testing.T) {
	if _, err := NewFromBytes(nil); err == nil {
		t.Error("NewFromBytes(nil) should fail")
	}
}

func TestBytesAliasesProtectedMemory(t *testing.T) {
	buffer, err := New(6)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer buffer.Close()

	copy(buffer.Bytes(), "pw")
	if buffer.String() != "pw\x00\x00\x00\x00" {
		t.Errorf("String() = %q, want the bytes written through Bytes()", buffer.String())
	}
}

func TestClose(t *testing.T) {
	buffer, err := NewFromBytes([]byte("hunter2"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}

	if err := buffer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if buffer.region != nil {
		t.Error("region still referenced after Close")
	}
	if buffer.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", buffer.Len())
	}
	if err := buffer.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestReadAfterClosePanics(t *testing.T) {
	reads := map[string]func(*Buffer){
		"Bytes":  func(buffer *Buffer) { buffer.Bytes() },
		"String": func(buffer *Buffer) { _ = buffer.String() },
	}
	for name, read := range reads {
		t.Run(name, func(t *testing.T) {
			buffer, err := New(8)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			buffer.Close()

			defer func() {
				if recover() == nil {
					t.Errorf("%s after Close did not panic", name)
				}
			}()
			read(buffer)
		})
	}
}

func TestZero(t *testing.T) {
	data := []byte("LOGIN alice pa55word")
	Zero(data)
	for index, value := range data {
		if value != 0 {
			t.Fatalf("byte %d not zeroed: got %d", index, value)
		}
	}
}
