// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package keystretch provides a memory-hard password-based key derivation
// function.
//
// The password is first stretched with PBKDF2, the result seeds sixteen
// mixing lanes, and the lanes then fill a large arena page by page, each page
// read from an earlier one at addresses chosen by the secret lane state. The
// final lane state is compressed with PBKDF2 into the derived key. Pages are
// spread over a pool of worker threads, but the derived key is the same for
// every thread count.
package keystretch

import (
	"errors"
	"fmt"
	"time"

	"github.com/dark-bio/keystretch-go/internal/arena"
	"github.com/dark-bio/keystretch-go/internal/mixer"
	"github.com/dark-bio/keystretch-go/internal/scheduler"
	"github.com/dark-bio/keystretch-go/pbkdf"
)

// Key derives a key from the password and salt with the given parameters,
// returning a slice of params.KeySize bytes. If params is nil, DefaultParams
// is used.
//
// For example, a 32-byte key using 64 MiB of memory on two threads:
//
//	key, err := keystretch.Key([]byte("password"), salt, keystretch.DefaultParams())
//
// On error no key is returned and all internal state has been wiped. With
// ClearPassword set the password slice is zeroed even if mixing later fails.
func Key(password, salt []byte, params *Params, opts ...Option) (key []byte, err error) {
	if params == nil {
		params = DefaultParams()
	}
	if err := params.Validate(password, salt); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	log := o.logger

	log.Debug("Deriving key", "params", params)
	start := time.Now()

	// Initial stretch of the password
	stretched := pbkdf.Key(params.Hash, password, salt, params.iterations(), int(params.KeySize))
	defer clear(stretched)

	if params.ClearPassword {
		clear(password)
	}
	log.Debug("Password stretched", "elapsed", time.Since(start))

	// Workspace allocation
	mem, err := arena.New(int(params.PageSize/8), params.numPages(), o.alloc)
	if err != nil {
		return nil, fmt.Errorf("%w: arena of %d bytes: %w", ErrAllocationFailure, params.MemorySize, err)
	}
	lanes, err := mixer.NewLaneTable(MaxThreads, o.alloc)
	if err != nil {
		if rerr := mem.Release(); rerr != nil {
			log.Warn("Failed to release arena", "err", rerr)
		}
		return nil, fmt.Errorf("%w: lane table: %w", ErrAllocationFailure, err)
	}
	if lerr := lanes.Lock(); lerr != nil {
		log.Debug("Lane table not locked in memory", "err", lerr)
	}
	defer func() {
		lanes.Wipe()
		if params.ClearMemory || err != nil {
			mem.Wipe()
		}
		if o.observe != nil {
			o.observe(mem.Words(), lanes.Words())
		}
		if params.FreeMemory || err != nil {
			if rerr := errors.Join(mem.Release(), lanes.Release()); rerr != nil {
				log.Warn("Failed to release workspace", "err", rerr)
			}
		}
	}()

	// Seed the lanes from the stretched password and page 0 from the salt
	seed := pbkdf.Key(params.Hash, stretched, salt, 1, lanes.Size())
	lanes.Seed(seed)
	clear(seed)
	clear(stretched)

	mem.Load(0, pbkdf.Key(params.Hash, salt, salt, 1, int(params.PageSize)))

	// Fill the arena
	mixStart := time.Now()
	err = scheduler.Run(scheduler.Config{
		Arena:   mem,
		Lanes:   lanes,
		Engine:  o.engine,
		Threads: int(params.Threads),
		Repeats: int(params.CPUWorkMultiplier),
		Margin:  MaxThreads,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrThreadLaunchFailure, err)
	}
	log.Debug("Arena mixed", "pages", mem.NumPages(), "elapsed", time.Since(mixStart))

	// Compress the final lane state into the derived key
	encoded := make([]byte, lanes.Size())
	lanes.Encode(encoded)
	key = pbkdf.Key(params.Hash, encoded, salt, 1, int(params.KeySize))
	clear(encoded)

	log.Debug("Key derived", "elapsed", time.Since(start))
	return key, nil
}
