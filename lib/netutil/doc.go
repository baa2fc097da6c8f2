// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies transport errors for the remotefs client.
//
// [IsExpectedCloseError] separates a server hanging up from genuine
// failures, [IsTimeout] recognizes deadline expiry from either a socket
// deadline or a context, and [DescribeFault] turns an error into the
// short cause shown next to a "reconnecting" status.
package netutil
