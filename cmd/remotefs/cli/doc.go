// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the remotefs
// client binary.
//
// The central type is [Command]: a named command with optional nested
// [Command.Subcommands], a [pflag.FlagSet] factory, and a Run function.
// [Command.Execute] parses flags, routes to subcommands, and prints
// help. Unknown subcommands and flags get a "did you mean" suggestion
// computed by Levenshtein distance (threshold 3), and [SuggestVerb]
// applies the same rule to protocol verbs typed in the shell.
//
// [ConnectionParams] carries the flags shared by every command that
// talks to a server (--config, --server, --user, --password-file,
// --verbose) and turns them into a started [remotefs.Client].
//
// Errors returned by commands should be [ToolError] values; [ExitCode]
// maps their category to the process exit status.
package cli
