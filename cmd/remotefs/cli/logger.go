// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// LoggerOptions selects the handler and level for [NewCommandLogger].
type LoggerOptions struct {
	// Level is "debug", "info", "warn", or "error". Empty means info.
	Level string

	// Format is "text", "json", or "auto". Auto picks text when Output
	// is a terminal and JSON otherwise.
	Format string

	// Verbose forces debug level regardless of Level.
	Verbose bool

	// Output receives log records. Nil means os.Stderr.
	Output io.Writer
}

// NewCommandLogger builds the logger a command passes to the client.
// Interactive sessions get human-readable text; piped or redirected
// stderr gets JSON for log collection.
//
// Callers scope it per command:
//
//	logger := cli.NewCommandLogger(options).With("command", "upload")
func NewCommandLogger(options LoggerOptions) (*slog.Logger, error) {
	output := options.Output
	if output == nil {
		output = os.Stderr
	}

	level, err := parseLevel(options.Level)
	if err != nil {
		return nil, err
	}
	if options.Verbose {
		level = slog.LevelDebug
	}
	handlerOptions := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(options.Format) {
	case "text":
		handler = slog.NewTextHandler(output, handlerOptions)
	case "json":
		handler = slog.NewJSONHandler(output, handlerOptions)
	case "", "auto":
		if isTerminal(output) {
			handler = slog.NewTextHandler(output, handlerOptions)
		} else {
			handler = slog.NewJSONHandler(output, handlerOptions)
		}
	default:
		return nil, Validation("unknown log format %q (want text, json, or auto)", options.Format)
	}
	return slog.New(handler), nil
}

func parseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, Validation("unknown log level %q", name)
	}
	return level, nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
