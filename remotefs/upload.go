// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bureau-foundation/remotefs/lib/binhash"
)

// ProgressFunc is called after each chunk with the bytes moved so far
// and the total. It runs on the transferring goroutine while the
// connection lease is held, so it must not use the connection.
type ProgressFunc func(transferred, total int64)

// UploadTransfer describes one upload.
type UploadTransfer struct {
	// ID correlates log lines for this transfer. It is local only.
	ID string

	// Filename is the remote name sent in the handshake.
	Filename string

	// DeclaredSize is the byte count sent in the handshake. Exactly
	// this many bytes are streamed on success, never more.
	DeclaredSize int64

	// Streamed counts file bytes written to the connection.
	Streamed int64

	// Phase is how far the transfer got.
	Phase Phase

	// Handshake is the server's reply to the UPLOAD command.
	Handshake string

	// Confirmation is the server's final reply, verbatim. Its content
	// is not interpreted: the transfer is Confirmed once it is read.
	Confirmation string

	// Digest is the BLAKE3 digest of the streamed bytes. It is never
	// sent to the server.
	Digest binhash.Digest
}

// UploadRequest describes an upload to perform.
type UploadRequest struct {
	// Filename is the remote name. It may not contain whitespace.
	Filename string

	// Size is the number of bytes to stream from Source.
	Size int64

	// Source supplies the file bytes. Reading stops after Size bytes
	// even if more are available.
	Source io.Reader

	// Progress, if set, is called after each chunk.
	Progress ProgressFunc
}

// UploadPipeline runs the three-phase upload on a connection:
//
//  1. Handshake: "UPLOAD <name> <size>\n", then one reply. Anything
//     without "READY" rejects the transfer before any file byte is sent.
//  2. Streaming: the file as raw [MaxReplySize]-byte chunks with no
//     framing and no per-chunk acknowledgement, until exactly the
//     declared size has been sent.
//  3. Confirmation: one reply, returned verbatim.
//
// The connection lease is held across all three phases.
type UploadPipeline struct {
	channel *CommandChannel
	logger  *slog.Logger
}

// NewUploadPipeline returns a pipeline on channel's connection.
func NewUploadPipeline(channel *CommandChannel, logger *slog.Logger) *UploadPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadPipeline{channel: channel, logger: logger}
}

func validateRemoteName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: file name is empty", ErrInvalidArgument)
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%w: file name %q contains whitespace", ErrInvalidArgument, name)
	}
	return nil
}

// Upload streams request.Size bytes of request.Source to the server.
// The returned transfer is never nil and records how far the upload
// got, even when an error is returned.
//
// Errors:
//   - handshake without READY: ProtocolMismatch wrapping
//     [ErrUploadRejected]; Phase is Rejected.
//   - Source fails or ends early: LocalIOFault; Phase is Failed. The
//     connection stays up, but the server is left waiting for the rest
//     of the declared bytes and will treat the next command's bytes as
//     file content.
//   - transport error in any phase: ConnectionFault; Phase is Failed
//     and a reconnect is scheduled.
func (p *UploadPipeline) Upload(ctx context.Context, request UploadRequest) (*UploadTransfer, error) {
	transfer := &UploadTransfer{
		ID:           uuid.NewString(),
		Filename:     request.Filename,
		DeclaredSize: request.Size,
		Phase:        PhaseHandshaking,
	}
	if err := validateRemoteName(request.Filename); err != nil {
		transfer.Phase = PhaseFailed
		return transfer, err
	}
	if request.Size < 0 {
		transfer.Phase = PhaseFailed
		return transfer, fmt.Errorf("%w: negative size %d", ErrInvalidArgument, request.Size)
	}

	connection := p.channel.connection
	if err := connection.acquire(ctx); err != nil {
		transfer.Phase = PhaseFailed
		return transfer, err
	}
	defer connection.release()

	logger := p.logger.With("transfer_id", transfer.ID, "filename", transfer.Filename)

	// Phase 1: handshake.
	line, err := formatCommand(VerbUpload, []string{request.Filename, strconv.FormatInt(request.Size, 10)})
	if err != nil {
		transfer.Phase = PhaseFailed
		return transfer, err
	}
	handshake, err := p.channel.exchange(VerbUpload, line)
	if err != nil {
		transfer.Phase = PhaseFailed
		return transfer, err
	}
	transfer.Handshake = handshake.Text
	if !uploadApproved(handshake.Text) {
		transfer.Phase = PhaseRejected
		logger.Info("upload rejected", "reply", handshake.Text)
		return transfer, protocolMismatch("upload", fmt.Errorf("%w: %s", ErrUploadRejected, handshake.Text))
	}
	transfer.Phase = PhaseApproved
	logger.Debug("upload approved", "bytes", request.Size)

	// Phase 2: raw chunks.
	transfer.Phase = PhaseStreaming
	hasher := binhash.NewHasher()
	chunk := make([]byte, MaxReplySize)
	for transfer.Streamed < request.Size {
		length := int(min(int64(MaxReplySize), request.Size-transfer.Streamed))
		if _, err := io.ReadFull(request.Source, chunk[:length]); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			transfer.Phase = PhaseFailed
			transfer.Digest = hasher.Digest()
			logger.Warn("upload source failed",
				"streamed", transfer.Streamed,
				"declared", request.Size,
				"error", err,
			)
			return transfer, localIOFault("upload", fmt.Errorf("reading source after %d of %d bytes: %w",
				transfer.Streamed, request.Size, err))
		}
		if err := connection.send("upload", chunk[:length]); err != nil {
			transfer.Phase = PhaseFailed
			transfer.Digest = hasher.Digest()
			return transfer, err
		}
		hasher.Write(chunk[:length])
		transfer.Streamed += int64(length)
		if request.Progress != nil {
			request.Progress(transfer.Streamed, request.Size)
		}
	}
	transfer.Digest = hasher.Digest()

	// Phase 3: confirmation.
	raw, err := connection.receive("upload", MaxReplySize)
	if err != nil {
		transfer.Phase = PhaseFailed
		return transfer, err
	}
	transfer.Confirmation = decodeReply(raw)
	transfer.Phase = PhaseConfirmed

	logger.Info("upload confirmed",
		"bytes", transfer.Streamed,
		"digest", transfer.Digest.String(),
		"reply", transfer.Confirmation,
	)
	return transfer, nil
}

// UploadFile uploads the local file at path under its base name, with
// its current size as the declared size. If the file grows during the
// upload only the declared bytes are sent; if it shrinks the upload
// fails with a LocalIOFault.
func (p *UploadPipeline) UploadFile(ctx context.Context, path string, progress ProgressFunc) (*UploadTransfer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, localIOFault("upload", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, localIOFault("upload", err)
	}
	if info.IsDir() {
		return nil, localIOFault("upload", fmt.Errorf("%s is a directory", path))
	}

	return p.Upload(ctx, UploadRequest{
		Filename: filepath.Base(path),
		Size:     info.Size(),
		Source:   file,
		Progress: progress,
	})
}
