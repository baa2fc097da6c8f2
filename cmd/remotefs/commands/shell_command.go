// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/remotefs/cmd/remotefs/cli"
)

func shellCommand(ctx context.Context, streams Streams) *cli.Command {
	var params cli.ConnectionParams
	return &cli.Command{
		Name:    "shell",
		Summary: "Interactive session with the server",
		Description: `Open an interactive session. Each line is sent as one protocol
command and the server's reply is printed as received. UPLOAD and
DOWNLOAD move files between the local disk and the server; LOGIN,
REGISTER, and LOGOUT manage the session.

If the server is unreachable, or the connection drops, the shell keeps
retrying in the background and announces when it is back. A dropped
connection ends the server-side session, so log in again afterwards.`,
		Usage: "remotefs shell [flags]",
		Examples: []cli.Example{
			{Description: "Connect to a local server", Command: "remotefs shell"},
			{Description: "Connect and log in", Command: "remotefs shell --server files:8080 --user alice"},
		},
		Flags: connectionFlags("shell", &params, nil),
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("shell takes no arguments (got %q)", args[0])
			}
			resolved, err := params.Resolve(streams.Err)
			if err != nil {
				return err
			}
			if err := resolved.Config.EnsureDownloadDirectory(); err != nil {
				return cli.Internal("%w", err)
			}
			logger := resolved.Logger.With("command", "shell")
			resolved.Logger = logger

			client, err := resolved.NewClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Start(ctx); err != nil {
				logger.Warn("initial connect failed, retrying in background", "error", err)
			} else if err := params.Login(ctx, client, streams.Err); err != nil {
				fmt.Fprintf(streams.Err, "%v\n", err)
			}

			shell := NewShell(client, ShellOptions{
				Input:             streams.In,
				Output:            streams.Out,
				DownloadDirectory: resolved.Config.Transfer.DownloadDirectory,
			})
			return shell.Run(ctx)
		},
	}
}
