// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/remotefs/lib/netutil"
	"github.com/bureau-foundation/remotefs/remotefs"
)

// theme holds the styles for one output stream. Styles come from a
// renderer bound to that stream, so redirected output is plain text.
type theme struct {
	prompt  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	notice  lipgloss.Style
	muted   lipgloss.Style
}

func newTheme(output io.Writer) theme {
	renderer := lipgloss.NewRenderer(output)
	return theme{
		prompt:  renderer.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		success: renderer.NewStyle().Foreground(lipgloss.Color("10")),
		failure: renderer.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		notice:  renderer.NewStyle().Foreground(lipgloss.Color("11")),
		muted:   renderer.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// syncWriter serializes writes from the command loop and the
// state-change watcher.
type syncWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

func (w *syncWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writer.Write(data)
}

// stateBanner returns the line announcing change, or "" for
// transitions not worth interrupting the user for.
func stateBanner(change remotefs.StateChange, address string, style theme) string {
	switch change.State {
	case remotefs.Faulted:
		cause := "connection lost"
		if change.Err != nil {
			cause = describeCause(change.Err)
		}
		if change.Attempt > 0 {
			return style.failure.Render(fmt.Sprintf("*** %s: %s (attempt %d), retrying", address, cause, change.Attempt))
		}
		return style.failure.Render(fmt.Sprintf("*** %s: %s, reconnecting", address, cause))
	case remotefs.Connected:
		return style.notice.Render(fmt.Sprintf("*** connected to %s", address))
	default:
		return ""
	}
}

func describeCause(err error) string {
	var remote *remotefs.Error
	if errors.As(err, &remote) {
		return remote.Cause()
	}
	return netutil.DescribeFault(err)
}

// formatBytes renders a byte count for humans ("2.5 kB").
func formatBytes(count int64) string {
	if count < 0 {
		count = 0
	}
	return humanize.Bytes(uint64(count))
}

// progressReporter prints transfer progress every tenth of the total.
type progressReporter struct {
	output    io.Writer
	label     string
	lastTenth int64
}

func newProgressReporter(output io.Writer, label string) *progressReporter {
	return &progressReporter{output: output, label: label}
}

func (p *progressReporter) report(transferred, total int64) {
	if total <= 0 {
		return
	}
	tenth := transferred * 10 / total
	if tenth <= p.lastTenth || tenth >= 10 {
		return
	}
	p.lastTenth = tenth
	fmt.Fprintf(p.output, "  %s %d%% (%s of %s)\n", p.label, tenth*10, formatBytes(transferred), formatBytes(total))
}

func uploadSummary(transfer *remotefs.UploadTransfer) string {
	return fmt.Sprintf("uploaded %s (%s, blake3 %s): %s",
		transfer.Filename, formatBytes(transfer.Streamed), transfer.Digest.String()[:16], transfer.Confirmation)
}

func downloadSummary(transfer *remotefs.DownloadTransfer, localPath string) string {
	return fmt.Sprintf("downloaded %s to %s (%s, blake3 %s)",
		transfer.Filename, localPath, formatBytes(transfer.Written), transfer.Digest.String()[:16])
}
