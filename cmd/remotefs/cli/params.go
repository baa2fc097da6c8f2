// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/remotefs/lib/config"
	"github.com/bureau-foundation/remotefs/remotefs"
	"github.com/bureau-foundation/remotefs/transport"
)

// ConnectionParams holds the flags shared by every command that talks
// to a storage server.
//
// Usage pattern:
//
//	var params cli.ConnectionParams
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        flagSet := pflag.NewFlagSet("upload", pflag.ContinueOnError)
//	        params.AddFlags(flagSet)
//	        return flagSet
//	    },
//	    Run: func(args []string) error {
//	        resolved, err := params.Resolve()
//	        ...
//	    },
//	}
type ConnectionParams struct {
	ConfigPath   string
	Server       string
	User         string
	PasswordFile string
	Verbose      bool
}

// AddFlags registers the connection flags on flagSet.
func (p *ConnectionParams) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&p.ConfigPath, "config", "", "path to a YAML or JSONC config file (default: $"+config.EnvironmentVariable+", then built-in defaults)")
	flagSet.StringVarP(&p.Server, "server", "s", "", "server address as host:port (overrides the config file)")
	flagSet.StringVarP(&p.User, "user", "u", "", "log in as this user after connecting")
	flagSet.StringVar(&p.PasswordFile, "password-file", "", "read the password from this file, or '-' for stdin (default: interactive prompt)")
	flagSet.BoolVarP(&p.Verbose, "verbose", "v", false, "log at debug level")
}

// Resolved is the outcome of [ConnectionParams.Resolve]: the validated
// configuration with flag overrides applied, and a logger built from
// its logging section.
type Resolved struct {
	Config *config.Config
	Logger *slog.Logger
}

// Resolve loads the configuration, applies --server, validates, and
// builds the logger. logOutput nil means stderr.
func (p *ConnectionParams) Resolve(logOutput io.Writer) (*Resolved, error) {
	var cfg *config.Config
	var err error
	if p.ConfigPath != "" {
		cfg, err = config.LoadFile(p.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, Validation("%w", err)
	}

	if p.Server != "" {
		host, port, err := splitServer(p.Server)
		if err != nil {
			return nil, err
		}
		cfg.Server.Host = host
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, Validation("invalid configuration: %w", err)
	}

	logger, err := NewCommandLogger(LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: p.Verbose,
		Output:  logOutput,
	})
	if err != nil {
		return nil, err
	}
	return &Resolved{Config: cfg, Logger: logger}, nil
}

func splitServer(server string) (string, int, error) {
	host, portText, err := net.SplitHostPort(server)
	if err != nil {
		return "", 0, Validation("--server %q: %v", server, err).
			WithHint("Use host:port, for example --server 127.0.0.1:8080.")
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, Validation("--server %q: port must be 1-65535", server)
	}
	if host == "" {
		return "", 0, Validation("--server %q: host is empty", server)
	}
	return host, port, nil
}

// NewClient builds a client from the resolved configuration. It does
// not connect.
func (r *Resolved) NewClient() (*remotefs.Client, error) {
	server := r.Config.Server
	keepAlive := transport.KeepAlive{
		Enabled:  server.KeepAlive.Enabled,
		Idle:     server.KeepAlive.Idle,
		Interval: server.KeepAlive.Interval,
		Count:    server.KeepAlive.Count,
	}
	client, err := remotefs.New(remotefs.Options{
		Connection: remotefs.ConnectionConfig{
			Address:        server.Address(),
			Dialer:         &transport.TCPDialer{Timeout: server.ConnectTimeout, KeepAlive: keepAlive},
			ConnectTimeout: server.ConnectTimeout,
			ReadTimeout:    server.ReadTimeout,
			RetryInterval:  server.RetryInterval,
		},
		Logger: r.Logger,
	})
	if err != nil {
		return nil, Internal("%w", err)
	}
	return client, nil
}

// Dial builds a client and performs the initial connect. A one-shot
// command has nothing to do while the server is down, so unlike the
// shell it fails instead of waiting for the reconnect loop.
func (r *Resolved) Dial(ctx context.Context) (*remotefs.Client, error) {
	client, err := r.NewClient()
	if err != nil {
		return nil, err
	}
	if err := client.Start(ctx); err != nil {
		client.Close()
		return nil, Transient("cannot reach %s: %s", client.Connection.Address(), describe(err)).
			WithHint("Check that the server is running, or pass --server host:port.")
	}
	return client, nil
}

// Login authenticates as p.User when it is set. The password comes
// from --password-file or an interactive prompt.
func (p *ConnectionParams) Login(ctx context.Context, client *remotefs.Client, prompt io.Writer) error {
	if p.User == "" {
		return nil
	}
	password, err := ReadPassword(p.PasswordFile, os.Stdin, prompt)
	if err != nil {
		return err
	}
	defer password.Close()

	result, err := client.Auth.Login(ctx, p.User, password.String())
	if err != nil {
		if result.Message != "" {
			return Forbidden("login as %s failed: %s", p.User, result.Message)
		}
		return Classify(err)
	}
	return nil
}

// describe returns the short cause of a remotefs error, or its text.
func describe(err error) string {
	var remote *remotefs.Error
	if errors.As(err, &remote) {
		return remote.Cause()
	}
	return err.Error()
}
