// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/remotefs/cmd/remotefs/cli"
	"github.com/bureau-foundation/remotefs/cmd/remotefs/commands"
	"github.com/bureau-foundation/remotefs/lib/process"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root(ctx).Execute(os.Args[1:])
	stop()

	if err == nil {
		return
	}
	// Commands that already reported their outcome return an ExitError;
	// don't print a redundant "error:" line for those.
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		process.Exit(nil, exitErr.Code)
	}
	process.Exit(err, cli.ExitCode(err))
}
