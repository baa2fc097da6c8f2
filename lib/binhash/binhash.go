// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest.
type Digest [32]byte

// String returns the hex encoding of the digest.
func (d Digest) String() string {
	return FormatDigest(d)
}

// IsZero reports whether d is the zero value (no data hashed yet is
// not the same thing: the BLAKE3 digest of empty input is non-zero).
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Hasher accumulates a BLAKE3 digest over bytes written to it. Upload
// and download pipelines write each chunk into a Hasher as it crosses
// the wire so that the digest describes exactly the streamed bytes.
type Hasher struct {
	hasher *blake3.Hasher
	count  int64
}

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{hasher: blake3.New()}
}

// Write adds data to the running digest. It never returns an error.
func (h *Hasher) Write(data []byte) (int, error) {
	h.count += int64(len(data))
	return h.hasher.Write(data)
}

// Count returns the number of bytes hashed so far.
func (h *Hasher) Count() int64 {
	return h.count
}

// Digest returns the digest of everything written so far. The Hasher
// may continue to be written to afterwards.
func (h *Hasher) Digest() Digest {
	var digest Digest
	copy(digest[:], h.hasher.Sum(nil))
	return digest
}

// Sum returns the BLAKE3 digest of data.
func Sum(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}

// HashFile computes the BLAKE3 digest of the file at path. The file is
// streamed through the hash function in chunks (via io.Copy) to keep
// memory usage constant regardless of file size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := NewHasher()
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return hasher.Digest(), nil
}

// FormatDigest returns the hex-encoded string representation of a
// digest. This is the format used in log output and transfer summaries.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a hex-encoded digest string. Returns an error if
// the string is not a valid 64-character hex encoding of 32 bytes.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing hash digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("hash digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
