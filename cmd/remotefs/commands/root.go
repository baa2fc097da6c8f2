// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the remotefs command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/remotefs/cmd/remotefs/cli"
	"github.com/bureau-foundation/remotefs/lib/version"
)

// Streams are the standard streams commands read and write. Tests
// substitute buffers.
type Streams struct {
	In  *os.File
	Out io.Writer
	Err io.Writer
}

// StandardStreams returns the process's stdin, stdout, and stderr.
func StandardStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Root returns the command tree wired to the process streams.
func Root(ctx context.Context) *cli.Command {
	return NewRoot(ctx, StandardStreams())
}

// NewRoot returns the command tree wired to streams.
func NewRoot(ctx context.Context, streams Streams) *cli.Command {
	return &cli.Command{
		Name: "remotefs",
		Description: `remotefs: client for a remote file-storage server.

Speaks the server's line-oriented protocol over one TCP connection,
reconnecting automatically when the connection drops.`,
		Output: streams.Err,
		Subcommands: []*cli.Command{
			shellCommand(ctx, streams),
			execCommand(ctx, streams),
			uploadCommand(ctx, streams),
			downloadCommand(ctx, streams),
			versionCommand(streams),
		},
	}
}

// connectionFlags returns a flag factory registering the shared
// connection flags, plus any command-specific ones from extra.
func connectionFlags(name string, params *cli.ConnectionParams, extra func(*pflag.FlagSet)) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
		params.AddFlags(flagSet)
		if extra != nil {
			extra(flagSet)
		}
		return flagSet
	}
}

func versionCommand(streams Streams) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("version takes no arguments")
			}
			fmt.Fprintln(streams.Out, version.Full())
			return nil
		},
	}
}
