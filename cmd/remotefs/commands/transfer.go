// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/remotefs/cmd/remotefs/cli"
	"github.com/bureau-foundation/remotefs/remotefs"
)

func uploadCommand(ctx context.Context, streams Streams) *cli.Command {
	var params cli.ConnectionParams
	var quiet bool
	return &cli.Command{
		Name:    "upload",
		Summary: "Upload a local file",
		Description: `Upload a local file under its base name. The server must answer the
handshake with READY; any other reply aborts the upload before a byte
of the file is sent.`,
		Usage: "remotefs upload [flags] <local-path>",
		Examples: []cli.Example{
			{Description: "Upload a report", Command: "remotefs upload -u alice report.pdf"},
		},
		Flags: connectionFlags("upload", &params, func(flagSet *pflag.FlagSet) {
			flagSet.BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
		}),
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("upload takes exactly one local path")
			}
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return cli.Validation("%w", err)
			}
			if info.IsDir() {
				return cli.Validation("%s is a directory", path)
			}

			client, _, closeSession, err := session(ctx, &params, streams, "upload")
			if err != nil {
				return err
			}
			defer closeSession()

			var progress remotefs.ProgressFunc
			if !quiet {
				progress = newProgressReporter(streams.Err, "upload").report
			}
			transfer, err := client.Uploads.UploadFile(ctx, path, progress)
			if err != nil {
				if transfer != nil && transfer.Phase == remotefs.PhaseRejected {
					return cli.Protocol("server rejected the upload: %s", transfer.Handshake)
				}
				return cli.Classify(err)
			}
			fmt.Fprintln(streams.Out, uploadSummary(transfer))
			return nil
		},
	}
}

func downloadCommand(ctx context.Context, streams Streams) *cli.Command {
	var params cli.ConnectionParams
	var quiet bool
	return &cli.Command{
		Name:    "download",
		Summary: "Download a remote file",
		Description: `Download a remote file. Without a local path the file is written to
the configured download directory under its remote base name. The
local file only appears once every byte has arrived.`,
		Usage: "remotefs download [flags] <remote-name> [local-path]",
		Examples: []cli.Example{
			{Description: "Fetch into the download directory", Command: "remotefs download -u alice report.pdf"},
			{Description: "Fetch to a specific path", Command: "remotefs download -u alice report.pdf /tmp/r.pdf"},
		},
		Flags: connectionFlags("download", &params, func(flagSet *pflag.FlagSet) {
			flagSet.BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
		}),
		Run: func(args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return cli.Validation("download takes a remote name and an optional local path")
			}
			name := args[0]

			client, resolved, closeSession, err := session(ctx, &params, streams, "download")
			if err != nil {
				return err
			}
			defer closeSession()

			localPath := ""
			if len(args) == 2 {
				localPath = args[1]
			} else {
				if err := resolved.Config.EnsureDownloadDirectory(); err != nil {
					return cli.Internal("%w", err)
				}
				localPath = filepath.Join(resolved.Config.Transfer.DownloadDirectory, filepath.Base(name))
			}

			var progress remotefs.ProgressFunc
			if !quiet {
				progress = newProgressReporter(streams.Err, "download").report
			}
			transfer, err := client.Downloads.DownloadFile(ctx, name, localPath, progress)
			if err != nil {
				if transfer != nil && transfer.Phase == remotefs.PhaseRejected {
					return cli.Protocol("server refused the download: %s", transfer.Announcement)
				}
				return cli.Classify(err)
			}
			fmt.Fprintln(streams.Out, downloadSummary(transfer, localPath))
			return nil
		},
	}
}
