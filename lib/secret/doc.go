// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps account passwords out of swappable memory.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock, and marks it excluded from core
// dumps via madvise(MADV_DONTDUMP). On Close the memory is zeroed,
// unlocked, and unmapped.
//
// [ReadFromPath] and [ReadLine] load a password from a file, stdin, or
// any reader (the CLI passes the terminal prompt's output here) and
// zero the intermediate bytes.
//
// Depends on golang.org/x/sys/unix.
package secret
