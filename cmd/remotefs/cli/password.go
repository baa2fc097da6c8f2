// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/remotefs/lib/secret"
)

// ReadPassword returns the login password. A non-empty path other than
// "-" is read as a file; "-" reads one line from stdin; an empty path
// prompts on the terminal with echo disabled. The caller must Close
// the returned buffer.
func ReadPassword(path string, stdin *os.File, prompt io.Writer) (*secret.Buffer, error) {
	switch path {
	case "":
	case "-":
		buffer, err := secret.ReadLine(stdin)
		if err != nil {
			return nil, Validation("%w", err)
		}
		return buffer, nil
	default:
		buffer, err := secret.ReadFromPath(path)
		if err != nil {
			return nil, Validation("%w", err)
		}
		return buffer, nil
	}

	descriptor := int(stdin.Fd())
	if !term.IsTerminal(descriptor) {
		return nil, Validation("no terminal available for a password prompt").
			WithHint("Pass --password-file <path>, or --password-file - to read it from stdin.")
	}

	fmt.Fprint(prompt, "Password: ")
	passwordBytes, err := term.ReadPassword(descriptor)
	fmt.Fprintln(prompt)
	if err != nil {
		return nil, Internal("reading password: %w", err)
	}

	buffer, err := secret.NewFromBytes(passwordBytes)
	secret.Zero(passwordBytes)
	if err != nil {
		return nil, Internal("%w", err)
	}
	return buffer, nil
}
