// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pbkdf provides PBKDF2 key expansion over a selectable HMAC hash.
//
// https://datatracker.ietf.org/doc/html/rfc8018#section-5.2
package pbkdf

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"
)

// Hash selects the pseudorandom function underlying PBKDF2.
type Hash uint8

const (
	// SHA256 is HMAC-SHA-256, the default.
	SHA256 Hash = iota
	// SHA512 is HMAC-SHA-512.
	SHA512
	// SHA3_256 is HMAC-SHA3-256.
	SHA3_256
	// BLAKE2b512 is HMAC over unkeyed BLAKE2b-512.
	BLAKE2b512
)

var names = [...]string{
	SHA256:     "sha256",
	SHA512:     "sha512",
	SHA3_256:   "sha3-256",
	BLAKE2b512: "blake2b-512",
}

// String returns the lowercase name of the hash.
func (h Hash) String() string {
	if !h.Available() {
		return "unknown"
	}
	return names[h]
}

// Available reports whether h names a supported hash.
func (h Hash) Available() bool {
	return int(h) < len(names)
}

// Size returns the digest size of the hash in bytes.
func (h Hash) Size() int {
	return h.New()().Size()
}

// New returns the constructor for the hash. Panics if the hash is unknown.
func (h Hash) New() func() hash.Hash {
	switch h {
	case SHA256:
		return sha256.New
	case SHA512:
		return sha512.New
	case SHA3_256:
		return func() hash.Hash { return sha3.New256() }
	case BLAKE2b512:
		return func() hash.Hash {
			d, err := blake2b.New512(nil)
			if err != nil {
				panic("pbkdf: " + err.Error()) // cannot fail without a key
			}
			return d
		}
	default:
		panic("pbkdf: unknown hash")
	}
}

// ParseHash returns the hash with the given name, as printed by String.
func ParseHash(name string) (Hash, bool) {
	for h, n := range names {
		if strings.EqualFold(n, name) {
			return Hash(h), true
		}
	}
	return 0, false
}

// Key derives a key of length n from the secret and salt by running PBKDF2
// with the given hash for iter iterations. The salt may be nil or empty.
//
// Panics if the hash is unknown, or if iter or n are not positive.
func Key(h Hash, secret, salt []byte, iter, n int) []byte {
	if iter <= 0 || n <= 0 {
		panic("pbkdf: iteration count and key length must be positive")
	}
	return pbkdf2.Key(secret, salt, iter, n, h.New())
}
