// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"context"
	"strings"
)

// Protocol verbs, reproduced exactly as the server expects them.
const (
	VerbLogin        = "LOGIN"
	VerbRegister     = "REGISTER"
	VerbLogout       = "LOGOUT"
	VerbList         = "LS"
	VerbListRecurse  = "LSR"
	VerbRead         = "READ"
	VerbWrite        = "WRITE"
	VerbMakeDir      = "MKDIR"
	VerbRemoveDir    = "RMDIR"
	VerbTouch        = "TOUCH"
	VerbDelete       = "DELETE"
	VerbStat         = "STAT"
	VerbCopy         = "COPY"
	VerbMove         = "MOVE"
	VerbPutFile      = "PUTFILE"
	VerbShare        = "SHARE"
	VerbSharedWithMe = "SHARED_WITH_ME"
	VerbChangePass   = "CHPASS"
	VerbUpload       = "UPLOAD"
	VerbDownload     = "DOWNLOAD"
)

// Verbs lists every verb the client knows, in help order.
var Verbs = []string{
	VerbRegister, VerbLogin, VerbLogout,
	VerbList, VerbListRecurse, VerbSharedWithMe,
	VerbRead, VerbWrite, VerbTouch, VerbStat, VerbDelete,
	VerbMakeDir, VerbRemoveDir,
	VerbCopy, VerbMove, VerbPutFile,
	VerbShare, VerbChangePass,
	VerbUpload, VerbDownload,
}

var mutatingVerbs = map[string]bool{
	VerbWrite:     true,
	VerbMakeDir:   true,
	VerbRemoveDir: true,
	VerbTouch:     true,
	VerbDelete:    true,
	VerbCopy:      true,
	VerbMove:      true,
	VerbPutFile:   true,
	VerbUpload:    true,
}

// IsMutating reports whether verb changes the user's file tree, so
// that a displayed listing must be re-queried after it succeeds.
// Matching is case-insensitive.
func IsMutating(verb string) bool {
	return mutatingVerbs[strings.ToUpper(verb)]
}

// IsKnownVerb reports whether verb (case-insensitive) is in [Verbs].
func IsKnownVerb(verb string) bool {
	upper := strings.ToUpper(verb)
	for _, known := range Verbs {
		if known == upper {
			return true
		}
	}
	return false
}

// List returns the user's top-level listing (LS).
func (ch *CommandChannel) List(ctx context.Context) (Response, error) {
	return ch.Execute(ctx, VerbList)
}

// ListRecursive returns a recursive listing (LSR). An empty path lists
// the user's root; "SHARED/owner/folder" lists a folder shared with
// the user.
func (ch *CommandChannel) ListRecursive(ctx context.Context, path string) (Response, error) {
	if path == "" {
		return ch.Execute(ctx, VerbListRecurse)
	}
	return ch.Execute(ctx, VerbListRecurse, path)
}

// Read returns a file's contents (READ).
func (ch *CommandChannel) Read(ctx context.Context, name string) (Response, error) {
	return ch.Execute(ctx, VerbRead, name)
}

// Write appends content to a file (WRITE). Content is sent verbatim
// after the name and may contain spaces but not line breaks.
func (ch *CommandChannel) Write(ctx context.Context, name, content string) (Response, error) {
	return ch.Execute(ctx, VerbWrite, name, content)
}

// MakeDirectory creates a directory (MKDIR).
func (ch *CommandChannel) MakeDirectory(ctx context.Context, name string) (Response, error) {
	return ch.Execute(ctx, VerbMakeDir, name)
}

// RemoveDirectory removes a directory (RMDIR).
func (ch *CommandChannel) RemoveDirectory(ctx context.Context, name string) (Response, error) {
	return ch.Execute(ctx, VerbRemoveDir, name)
}

// Touch creates an empty file (TOUCH).
func (ch *CommandChannel) Touch(ctx context.Context, name string) (Response, error) {
	return ch.Execute(ctx, VerbTouch, name)
}

// Delete removes a file (DELETE).
func (ch *CommandChannel) Delete(ctx context.Context, name string) (Response, error) {
	return ch.Execute(ctx, VerbDelete, name)
}

// Stat returns a file's size and mode (STAT).
func (ch *CommandChannel) Stat(ctx context.Context, name string) (Response, error) {
	return ch.Execute(ctx, VerbStat, name)
}

// Copy duplicates source to destination (COPY).
func (ch *CommandChannel) Copy(ctx context.Context, source, destination string) (Response, error) {
	return ch.Execute(ctx, VerbCopy, source, destination)
}

// Move renames source to destination (MOVE).
func (ch *CommandChannel) Move(ctx context.Context, source, destination string) (Response, error) {
	return ch.Execute(ctx, VerbMove, source, destination)
}

// PutFile moves a file into a directory (PUTFILE).
func (ch *CommandChannel) PutFile(ctx context.Context, name, directory string) (Response, error) {
	return ch.Execute(ctx, VerbPutFile, name, directory)
}

// Share grants user a permission on folder
// ("SHARE folder WITH user permission").
func (ch *CommandChannel) Share(ctx context.Context, folder, user, permission string) (Response, error) {
	return ch.Execute(ctx, VerbShare, folder, "WITH", user, permission)
}

// SharedWithMe lists folders other users have shared with the caller
// (SHARED_WITH_ME).
func (ch *CommandChannel) SharedWithMe(ctx context.Context) (Response, error) {
	return ch.Execute(ctx, VerbSharedWithMe)
}
