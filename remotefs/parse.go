// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotefs

import (
	"fmt"
	"strconv"
	"strings"
)

// The server's replies are free text. Each function below is the only
// place its token is recognized.

// authSucceeded reports whether a LOGIN or REGISTER reply indicates
// success: it contains "successful" in any letter case.
func authSucceeded(text string) bool {
	return strings.Contains(strings.ToLower(text), "successful")
}

// uploadApproved reports whether an UPLOAD handshake reply approves
// streaming: it contains "READY", case-sensitive.
func uploadApproved(text string) bool {
	return strings.Contains(text, "READY")
}

// parseSizeAnnouncement extracts n from a DOWNLOAD reply of the form
// "SIZE n". Trailing text after the number is ignored, matching how
// the reference client scans the reply.
func parseSizeAnnouncement(text string) (int64, error) {
	rest, found := strings.CutPrefix(strings.TrimSpace(text), "SIZE ")
	if !found {
		return 0, fmt.Errorf("reply %q is not a SIZE announcement", text)
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, fmt.Errorf("SIZE announcement %q has no size", text)
	}
	size, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("SIZE announcement %q: %w", text, err)
	}
	if size < 0 {
		return 0, fmt.Errorf("SIZE announcement %q is negative", text)
	}
	return size, nil
}
