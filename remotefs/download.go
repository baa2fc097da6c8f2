// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bureau-foundation/remotefs/lib/binhash"
)

// downloadAcknowledgement is sent raw, without a newline, after a SIZE
// announcement.
var downloadAcknowledgement = []byte("READY")

// DownloadTransfer describes one download.
type DownloadTransfer struct {
	// ID correlates log lines for this transfer. It is local only.
	ID string

	// Filename is the remote name requested.
	Filename string

	// AnnouncedSize is n from the server's "SIZE n" reply.
	AnnouncedSize int64

	// Received counts file bytes read from the connection.
	Received int64

	// Written counts bytes accepted by the destination. It is less
	// than Received only after a local write failure.
	Written int64

	// Phase is how far the transfer got.
	Phase Phase

	// Announcement is the server's reply to the DOWNLOAD command.
	Announcement string

	// Digest is the BLAKE3 digest of the received bytes.
	Digest binhash.Digest
}

// DownloadPipeline runs the download sequence on a connection:
//
//  1. "DOWNLOAD <name>\n", then one reply. Anything other than
//     "SIZE n" refuses the transfer.
//  2. The raw acknowledgement "READY" (no newline).
//  3. Exactly n raw bytes, read in chunks of at most [MaxReplySize].
//     There is no trailing confirmation.
//
// The connection lease is held throughout.
type DownloadPipeline struct {
	channel *CommandChannel
	logger  *slog.Logger
}

// NewDownloadPipeline returns a pipeline on channel's connection.
func NewDownloadPipeline(channel *CommandChannel, logger *slog.Logger) *DownloadPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadPipeline{channel: channel, logger: logger}
}

// Download fetches name and writes its bytes to destination. The
// returned transfer is never nil.
//
// Errors:
//   - reply is not a SIZE announcement: ProtocolMismatch wrapping
//     [ErrDownloadRefused] carrying the reply; Phase is Rejected.
//   - destination write fails: the remaining announced bytes are still
//     read and discarded so that the next reply lines up with the next
//     command, then a LocalIOFault is returned; Phase is Failed.
//   - transport error: ConnectionFault; Phase is Failed and a reconnect
//     is scheduled.
func (p *DownloadPipeline) Download(ctx context.Context, name string, destination io.Writer, progress ProgressFunc) (*DownloadTransfer, error) {
	transfer := &DownloadTransfer{
		ID:       uuid.NewString(),
		Filename: name,
		Phase:    PhaseHandshaking,
	}
	if err := validateRemoteName(name); err != nil {
		transfer.Phase = PhaseFailed
		return transfer, err
	}

	connection := p.channel.connection
	if err := connection.acquire(ctx); err != nil {
		transfer.Phase = PhaseFailed
		return transfer, err
	}
	defer connection.release()

	logger := p.logger.With("transfer_id", transfer.ID, "filename", name)

	line, err := formatCommand(VerbDownload, []string{name})
	if err != nil {
		transfer.Phase = PhaseFailed
		return transfer, err
	}
	announcement, err := p.channel.exchange(VerbDownload, line)
	if err != nil {
		transfer.Phase = PhaseFailed
		return transfer, err
	}
	transfer.Announcement = announcement.Text

	size, err := parseSizeAnnouncement(announcement.Text)
	if err != nil {
		transfer.Phase = PhaseRejected
		logger.Info("download refused", "reply", announcement.Text)
		return transfer, protocolMismatch("download", fmt.Errorf("%w: %s", ErrDownloadRefused, announcement.Text))
	}
	transfer.AnnouncedSize = size
	transfer.Phase = PhaseApproved

	if err := connection.send("download", downloadAcknowledgement); err != nil {
		transfer.Phase = PhaseFailed
		return transfer, err
	}

	transfer.Phase = PhaseStreaming
	hasher := binhash.NewHasher()
	var writeError error
	for transfer.Received < size {
		chunk, err := connection.receive("download", int(min(int64(MaxReplySize), size-transfer.Received)))
		if err != nil {
			transfer.Phase = PhaseFailed
			transfer.Digest = hasher.Digest()
			return transfer, err
		}
		transfer.Received += int64(len(chunk))
		hasher.Write(chunk)

		if writeError == nil {
			written, err := destination.Write(chunk)
			transfer.Written += int64(written)
			if err != nil {
				writeError = err
				logger.Warn("download destination failed, draining",
					"written", transfer.Written,
					"announced", size,
					"error", err,
				)
			}
		}
		if progress != nil {
			progress(transfer.Received, size)
		}
	}
	transfer.Digest = hasher.Digest()

	if writeError != nil {
		transfer.Phase = PhaseFailed
		return transfer, localIOFault("download", fmt.Errorf("writing after %d of %d bytes: %w",
			transfer.Written, size, writeError))
	}

	transfer.Phase = PhaseConfirmed
	logger.Info("download complete",
		"bytes", transfer.Received,
		"digest", transfer.Digest.String(),
	)
	return transfer, nil
}

// DownloadFile downloads name into localPath. The bytes land in a
// temporary file in the same directory, which is renamed over
// localPath only when every announced byte has arrived, so a failed
// download never leaves a truncated file at localPath.
func (p *DownloadPipeline) DownloadFile(ctx context.Context, name, localPath string, progress ProgressFunc) (*DownloadTransfer, error) {
	directory := filepath.Dir(localPath)
	temporary, err := os.CreateTemp(directory, "."+filepath.Base(localPath)+".*.partial")
	if err != nil {
		return nil, localIOFault("download", err)
	}
	temporaryPath := temporary.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(temporaryPath)
		}
	}()

	transfer, downloadError := p.Download(ctx, name, temporary, progress)
	closeError := temporary.Close()
	if downloadError != nil {
		return transfer, downloadError
	}
	if closeError != nil {
		transfer.Phase = PhaseFailed
		return transfer, localIOFault("download", closeError)
	}
	if err := os.Rename(temporaryPath, localPath); err != nil {
		transfer.Phase = PhaseFailed
		return transfer, localIOFault("download", err)
	}
	committed = true
	return transfer, nil
}
