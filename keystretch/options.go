// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keystretch

import (
	"log/slog"

	"github.com/dark-bio/keystretch-go/internal/mixer"
	"github.com/dark-bio/keystretch-go/internal/securemem"
)

type options struct {
	logger *slog.Logger
	alloc  securemem.Allocator
	engine mixer.Engine

	// observe sees the arena and lane words after the hygiene wipes but
	// before the storage is released.
	observe func(arena, lanes []uint64)
}

// Option configures non-cryptographic aspects of a derivation. Options never
// change the derived key.
type Option func(*options)

// WithLogger sets the logger for progress and diagnostics. Passwords, salts
// and key material are never logged. If nil is passed, output is discarded,
// which is also the default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: slog.New(slog.DiscardHandler),
		alloc:  securemem.Alloc,
		engine: mixer.Unrolled{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
