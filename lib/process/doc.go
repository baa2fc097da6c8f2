// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the remotefs binary.
// These functions centralize the raw I/O that happens before the
// structured logger exists or after main() has given up:
//
//   - Fatal error reporting to stderr when the logger may not be
//     initialized.
//   - Process exit with a specific code chosen from the error's
//     category.
package process
