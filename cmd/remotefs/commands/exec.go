// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/remotefs/cmd/remotefs/cli"
	"github.com/bureau-foundation/remotefs/remotefs"
)

// session opens a connection for a one-shot command, logs in when
// --user is set, and returns a function that logs out and closes.
func session(ctx context.Context, params *cli.ConnectionParams, streams Streams, command string) (*remotefs.Client, *cli.Resolved, func(), error) {
	resolved, err := params.Resolve(streams.Err)
	if err != nil {
		return nil, nil, nil, err
	}
	resolved.Logger = resolved.Logger.With("command", command)

	client, err := resolved.Dial(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := params.Login(ctx, client, streams.Err); err != nil {
		client.Close()
		return nil, nil, nil, err
	}

	closer := func() {
		if client.Auth.Current().Authenticated {
			if _, err := client.Auth.Logout(ctx); err != nil {
				resolved.Logger.Warn("logout failed", "error", err)
			}
		}
		client.Close()
	}
	return client, resolved, closer, nil
}

func execCommand(ctx context.Context, streams Streams) *cli.Command {
	var params cli.ConnectionParams
	return &cli.Command{
		Name:    "exec",
		Summary: "Send one command and print the reply",
		Description: `Connect, optionally log in, send a single protocol command, print
the server's reply, and log out. Arguments after the verb are joined
with spaces and sent as typed.`,
		Usage: "remotefs exec [flags] <VERB> [args...]",
		Examples: []cli.Example{
			{Description: "List files", Command: "remotefs exec --user alice --password-file ~/.remotefs-pw LS"},
			{Description: "Create a directory", Command: "remotefs exec -u alice MKDIR reports"},
		},
		Flags: connectionFlags("exec", &params, nil),
		Run: func(args []string) error {
			if len(args) == 0 {
				return cli.Validation("a protocol verb is required").
					WithHint("Known verbs: " + strings.Join(remotefs.Verbs, " "))
			}
			verb := strings.ToUpper(args[0])
			switch verb {
			case remotefs.VerbUpload, remotefs.VerbDownload:
				return cli.Validation("%s streams file data; use 'remotefs %s'", verb, strings.ToLower(verb))
			case remotefs.VerbLogin, remotefs.VerbLogout:
				return cli.Validation("%s is managed by --user; it cannot be sent with exec", verb)
			}
			if !remotefs.IsKnownVerb(verb) {
				if suggestion := cli.SuggestVerb(verb, remotefs.Verbs); suggestion != "" {
					return cli.Validation("unknown verb %q (did you mean %s?)", args[0], suggestion)
				}
			}

			client, _, closeSession, err := session(ctx, &params, streams, "exec")
			if err != nil {
				return err
			}
			defer closeSession()

			var commandArgs []string
			if len(args) > 1 {
				commandArgs = []string{strings.Join(args[1:], " ")}
			}
			response, err := client.Execute(ctx, verb, commandArgs...)
			if err != nil {
				return cli.Classify(err)
			}
			fmt.Fprintln(streams.Out, response.Text)
			return nil
		},
	}
}
