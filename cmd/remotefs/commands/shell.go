// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/bureau-foundation/remotefs/cmd/remotefs/cli"
	"github.com/bureau-foundation/remotefs/remotefs"
)

// ShellOptions configures a [Shell].
type ShellOptions struct {
	Input  io.Reader
	Output io.Writer

	// DownloadDirectory is where DOWNLOAD writes when no local path
	// is given.
	DownloadDirectory string
}

// Shell is the interactive command loop. Each input line is one
// protocol command; the shell routes the verbs that need more than a
// single exchange (LOGIN, UPLOAD, DOWNLOAD, ...) to the matching client
// component and prints every reply as the server sent it.
type Shell struct {
	client            *remotefs.Client
	input             io.Reader
	output            io.Writer
	style             theme
	downloadDirectory string
}

// NewShell returns a shell driving client.
func NewShell(client *remotefs.Client, options ShellOptions) *Shell {
	downloadDirectory := options.DownloadDirectory
	if downloadDirectory == "" {
		downloadDirectory = "."
	}
	return &Shell{
		client:            client,
		input:             options.Input,
		output:            &syncWriter{writer: options.Output},
		style:             newTheme(options.Output),
		downloadDirectory: downloadDirectory,
	}
}

// Run reads commands until the input ends, "quit" is entered, or ctx is
// done. On the way out it logs out if a session is active.
func (s *Shell) Run(ctx context.Context) error {
	changes, unsubscribe := s.client.Connection.Subscribe()
	watcherDone := make(chan struct{})
	go s.watch(changes, watcherDone)
	defer func() {
		unsubscribe()
		<-watcherDone
	}()

	address := s.client.Connection.Address()
	if s.client.Connection.State() == remotefs.Connected {
		s.println(s.style.notice.Render("connected to " + address))
	} else {
		s.println(s.style.failure.Render("not connected to " + address + "; retrying in the background"))
	}
	s.println(s.style.muted.Render("type 'help' for commands, 'quit' to exit"))

	scanner := bufio.NewScanner(s.input)
	for {
		fmt.Fprint(s.output, s.prompt())
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if line == "help" || line == "?" {
			s.printHelp()
			continue
		}
		s.dispatch(ctx, line)
		if ctx.Err() != nil {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return cli.Internal("reading input: %w", err)
	}

	if s.client.Auth.Current().Authenticated {
		if response, err := s.client.Auth.Logout(context.WithoutCancel(ctx)); err == nil {
			s.println(response.Text)
		}
	}
	return nil
}

// watch prints a banner for each connection state change until the
// subscription is cancelled.
func (s *Shell) watch(changes <-chan remotefs.StateChange, done chan<- struct{}) {
	defer close(done)
	address := s.client.Connection.Address()
	lost := s.client.Connection.State() != remotefs.Connected
	for change := range changes {
		switch change.State {
		case remotefs.Faulted:
			if lost {
				continue
			}
			lost = true
			s.println(stateBanner(change, address, s.style))
		case remotefs.Connected:
			if !lost {
				continue
			}
			lost = false
			s.println(stateBanner(change, address, s.style) + s.style.muted.Render(" (log in again)"))
		}
	}
}

func (s *Shell) prompt() string {
	session := s.client.Auth.Current()
	if session.Authenticated {
		return s.style.prompt.Render(session.Username+"@remotefs") + "> "
	}
	return s.style.prompt.Render("remotefs") + "> "
}

func (s *Shell) println(text string) {
	fmt.Fprintln(s.output, text)
}

func (s *Shell) printError(err error) {
	s.println(s.style.failure.Render("error: " + cli.Classify(err).Error()))
}

// dispatch runs one input line. The verb is matched case-insensitively
// and sent upper-case; the rest of the line is sent as typed.
func (s *Shell) dispatch(ctx context.Context, line string) {
	fields := strings.Fields(line)
	verb := strings.ToUpper(fields[0])
	arguments := fields[1:]
	rest := strings.TrimSpace(line[len(fields[0]):])

	switch verb {
	case remotefs.VerbLogin, remotefs.VerbRegister:
		if len(arguments) != 2 {
			s.println(fmt.Sprintf("usage: %s <username> <password>", verb))
			return
		}
		s.authenticate(ctx, verb, arguments[0], arguments[1])
	case remotefs.VerbLogout:
		response, err := s.client.Auth.Logout(ctx)
		if err != nil {
			s.printError(err)
			return
		}
		s.println(response.Text)
	case remotefs.VerbChangePass:
		if len(arguments) != 2 {
			s.println("usage: CHPASS <old-password> <new-password>")
			return
		}
		s.reply(s.client.Auth.ChangePassword(ctx, arguments[0], arguments[1]))
	case remotefs.VerbUpload:
		if len(arguments) != 1 {
			s.println("usage: UPLOAD <local-path>")
			return
		}
		s.upload(ctx, arguments[0])
	case remotefs.VerbDownload:
		if len(arguments) < 1 || len(arguments) > 2 {
			s.println("usage: DOWNLOAD <remote-name> [local-path]")
			return
		}
		localPath := filepath.Join(s.downloadDirectory, filepath.Base(arguments[0]))
		if len(arguments) == 2 {
			localPath = arguments[1]
		}
		s.download(ctx, arguments[0], localPath)
	default:
		var args []string
		if rest != "" {
			args = []string{rest}
		}
		response, err := s.client.Execute(ctx, verb, args...)
		if err != nil {
			s.printError(err)
			return
		}
		s.println(response.Text)
		if !remotefs.IsKnownVerb(verb) {
			if suggestion := cli.SuggestVerb(verb, remotefs.Verbs); suggestion != "" {
				s.println(s.style.muted.Render(fmt.Sprintf("(did you mean %s?)", suggestion)))
			}
		}
		if remotefs.IsMutating(verb) {
			s.refresh(ctx)
		}
	}
}

func (s *Shell) authenticate(ctx context.Context, verb, username, password string) {
	var result remotefs.AuthResult
	var err error
	if verb == remotefs.VerbLogin {
		result, err = s.client.Auth.Login(ctx, username, password)
	} else {
		result, err = s.client.Auth.Register(ctx, username, password)
	}
	switch {
	case result.Success:
		s.println(s.style.success.Render(result.Message))
	case result.Message != "":
		s.println(s.style.failure.Render(result.Message))
	default:
		s.printError(err)
	}
}

func (s *Shell) reply(response remotefs.Response, err error) {
	if err != nil {
		s.printError(err)
		return
	}
	s.println(response.Text)
}

func (s *Shell) upload(ctx context.Context, path string) {
	progress := newProgressReporter(s.output, "upload")
	transfer, err := s.client.Uploads.UploadFile(ctx, path, progress.report)
	if err != nil {
		if transfer != nil && transfer.Phase == remotefs.PhaseRejected {
			s.println(s.style.failure.Render(transfer.Handshake))
			return
		}
		s.printError(err)
		return
	}
	s.println(s.style.success.Render(uploadSummary(transfer)))
	s.refresh(ctx)
}

func (s *Shell) download(ctx context.Context, name, localPath string) {
	progress := newProgressReporter(s.output, "download")
	transfer, err := s.client.Downloads.DownloadFile(ctx, name, localPath, progress.report)
	if err != nil {
		if transfer != nil && transfer.Phase == remotefs.PhaseRejected {
			s.println(s.style.failure.Render(transfer.Announcement))
			return
		}
		s.printError(err)
		return
	}
	s.println(s.style.success.Render(downloadSummary(transfer, localPath)))
}

// refresh re-queries the listing after a command that changed it.
func (s *Shell) refresh(ctx context.Context) {
	response, err := s.client.Commands.List(ctx)
	if err != nil {
		s.printError(err)
		return
	}
	s.println(s.style.muted.Render("--- files ---"))
	s.println(response.Text)
}

var shellHelp = []struct{ usage, summary string }{
	{"REGISTER <user> <password>", "create an account"},
	{"LOGIN <user> <password>", "start a session"},
	{"LOGOUT", "end the session"},
	{"CHPASS <old> <new>", "change the password"},
	{"LS / LSR [dir]", "list files, or list recursively"},
	{"SHARED_WITH_ME", "list folders others have shared with you"},
	{"READ <file>", "print a file"},
	{"WRITE <file> <text>", "write text to a file"},
	{"TOUCH <file> / STAT <file>", "create an empty file / show metadata"},
	{"DELETE <file>", "delete a file"},
	{"MKDIR <dir> / RMDIR <dir>", "create or remove a directory"},
	{"COPY <src> <dst> / MOVE <src> <dst>", "copy or move a file"},
	{"PUTFILE <file> <dir>", "place a file in a directory"},
	{"SHARE <folder> WITH <user> <perm>", "share a folder"},
	{"UPLOAD <local-path>", "send a local file"},
	{"DOWNLOAD <name> [local-path]", "fetch a file"},
	{"help / quit", "this text / leave the shell"},
}

func (s *Shell) printHelp() {
	table := tabwriter.NewWriter(s.output, 2, 0, 3, ' ', 0)
	for _, entry := range shellHelp {
		fmt.Fprintf(table, "  %s\t%s\n", entry.usage, entry.summary)
	}
	table.Flush()
}
