// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Remotefs is the command-line client for a remote file-storage server.
//
// Subcommands:
//
//	remotefs shell                       interactive session
//	remotefs exec <VERB> [args...]       send one command, print the reply
//	remotefs upload <local-path>         upload a file
//	remotefs download <name> [local]     download a file
//	remotefs version                     print build information
//
// Every command that talks to the server accepts --config, --server,
// --user, --password-file, and --verbose. Configuration is read from
// --config, then $REMOTEFS_CONFIG, then built-in defaults
// (127.0.0.1:8080).
//
// Exit status: 0 on success, 2 for invalid input, 3 when the server is
// unreachable or the connection drops, 4 when the server rejects an
// operation, 5 when login fails, and 1 for anything else.
package main
