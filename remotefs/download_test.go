// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/bureau-foundation/remotefs/lib/binhash"
)

func newTestDownloads(t *testing.T, server *fileServer) (*DownloadPipeline, *CommandChannel, *stubDialer) {
	t.Helper()
	dialer := newStubDialer(server.Serve)
	channel, _ := newConnectedChannel(t, dialer)
	return NewDownloadPipeline(channel, slog.New(slog.DiscardHandler)), channel, dialer
}

func TestDownload(t *testing.T) {
	sizes := []int{0, 1, 1023, 1024, 1025, 2500, 1_000_000}

	for _, size := range sizes {
		t.Run(strconv.Itoa(size), func(t *testing.T) {
			server := newFileServer()
			content := patterned(size)
			server.Put("data.bin", content)
			downloads, _, dialer := newTestDownloads(t, server)

			var destination bytes.Buffer
			transfer, err := downloads.Download(context.Background(), "data.bin", &destination, nil)
			if err != nil {
				t.Fatalf("Download: %v", err)
			}
			if !bytes.Equal(destination.Bytes(), content) {
				t.Fatalf("received %d bytes, want %d identical bytes", destination.Len(), size)
			}
			if transfer.AnnouncedSize != int64(size) || transfer.Received != int64(size) {
				t.Errorf("announced %d received %d, want %d", transfer.AnnouncedSize, transfer.Received, size)
			}
			if transfer.Phase != PhaseConfirmed {
				t.Errorf("Phase = %s, want confirmed", transfer.Phase)
			}
			if transfer.Digest != binhash.Sum(content) {
				t.Errorf("Digest = %s, want digest of content", transfer.Digest)
			}

			writes := dialer.LastClient(t).Writes()
			if len(writes) != 2 {
				t.Fatalf("writes = %q, want command and acknowledgement", writes)
			}
			if string(writes[0]) != "DOWNLOAD data.bin\n" {
				t.Errorf("command = %q", writes[0])
			}
			if string(writes[1]) != "READY" {
				t.Errorf("acknowledgement = %q, want raw READY without newline", writes[1])
			}
		})
	}
}

func TestDownloadRefused(t *testing.T) {
	server := newFileServer()
	downloads, _, dialer := newTestDownloads(t, server)

	var destination bytes.Buffer
	transfer, err := downloads.Download(context.Background(), "missing.txt", &destination, nil)
	if !IsProtocolMismatch(err) || !errors.Is(err, ErrDownloadRefused) {
		t.Fatalf("Download error = %v, want protocol mismatch wrapping ErrDownloadRefused", err)
	}
	if transfer.Phase != PhaseRejected {
		t.Errorf("Phase = %s, want rejected", transfer.Phase)
	}
	if transfer.Announcement != "File not found" {
		t.Errorf("Announcement = %q", transfer.Announcement)
	}
	if writes := dialer.LastClient(t).Writes(); len(writes) != 1 {
		t.Errorf("writes = %q, want no acknowledgement after refusal", writes)
	}
}

type limitedWriter struct {
	buffer bytes.Buffer
	limit  int
}

func (w *limitedWriter) Write(data []byte) (int, error) {
	room := w.limit - w.buffer.Len()
	if room <= 0 {
		return 0, io.ErrShortWrite
	}
	if len(data) > room {
		w.buffer.Write(data[:room])
		return room, io.ErrShortWrite
	}
	return w.buffer.Write(data)
}

func TestDownloadWriteFailureDrains(t *testing.T) {
	server := newFileServer()
	server.Put("data.bin", patterned(5000))
	downloads, channel, _ := newTestDownloads(t, server)

	destination := &limitedWriter{limit: 1500}
	transfer, err := downloads.Download(context.Background(), "data.bin", destination, nil)
	if !IsLocalIOFault(err) || !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("Download error = %v, want local I/O fault wrapping io.ErrShortWrite", err)
	}
	if transfer.Phase != PhaseFailed {
		t.Errorf("Phase = %s, want failed", transfer.Phase)
	}
	if transfer.Received != 5000 {
		t.Errorf("Received = %d, want 5000 (remaining bytes drained)", transfer.Received)
	}
	if transfer.Written != 1500 {
		t.Errorf("Written = %d, want 1500", transfer.Written)
	}

	// The stream is still aligned: the next command gets its own reply.
	response, err := channel.Stat(context.Background(), "data.bin")
	if err != nil {
		t.Fatalf("Stat after drained download: %v", err)
	}
	if response.Text != "STAT ok" {
		t.Errorf("Stat reply = %q, want %q", response.Text, "STAT ok")
	}
}

func TestDownloadFile(t *testing.T) {
	server := newFileServer()
	content := patterned(4096 + 17)
	server.Put("photo.jpg", content)
	downloads, _, _ := newTestDownloads(t, server)

	directory := t.TempDir()
	localPath := filepath.Join(directory, "photo.jpg")
	var calls int
	transfer, err := downloads.DownloadFile(context.Background(), "photo.jpg", localPath, func(transferred, total int64) {
		calls++
	})
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}

	got, err := os.ReadFile(localPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("local file differs from server content")
	}
	if transfer.Received != int64(len(content)) {
		t.Errorf("Received = %d", transfer.Received)
	}
	if calls != 5 {
		t.Errorf("progress calls = %d, want 5", calls)
	}
	onDisk, err := binhash.HashFile(localPath)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if transfer.Digest != onDisk {
		t.Errorf("transfer digest %s, file on disk hashes to %s", transfer.Digest, onDisk)
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the downloaded file", len(entries))
	}
}

func TestDownloadFileRefusedLeavesNothing(t *testing.T) {
	server := newFileServer()
	downloads, _, _ := newTestDownloads(t, server)

	directory := t.TempDir()
	localPath := filepath.Join(directory, "missing.txt")
	if _, err := downloads.DownloadFile(context.Background(), "missing.txt", localPath, nil); !errors.Is(err, ErrDownloadRefused) {
		t.Fatalf("DownloadFile error = %v, want ErrDownloadRefused", err)
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("directory has %d entries after a refused download, want 0", len(entries))
	}
}
